package frankfurter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	latestDate = "latest"
	fromParam  = "from"
)

type config interface {
	BaseURL() string
	Timeout() int64
}

// Client fetches exchange rates from the frankfurter API. A rates resource is
// keyed by date ("latest" or an ISO date) and a source currency; the response
// maps currency codes to multipliers relative to the source.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

func New(config config) *Client {
	return &Client{
		baseURL:    config.BaseURL(),
		httpClient: &http.Client{Timeout: time.Duration(config.Timeout()) * time.Second},
	}
}

func (c *Client) GetRates(ctx context.Context, from, date string) (map[string]float64, error) {
	if date == "" {
		date = latestDate
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.baseURL, date), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}

	q := req.URL.Query()
	q.Add(fromParam, from)
	req.URL.RawQuery = q.Encode()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "requesting rates")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from frankfurter", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response")
	}

	rates := ratesResponse{}
	err = json.Unmarshal(body, &rates)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshalling response")
	}

	if len(rates.Rates) == 0 {
		return nil, errors.New("empty rates in response")
	}

	return rates.Rates, nil
}
