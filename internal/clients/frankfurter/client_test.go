package frankfurter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	url string
}

func (c testConfig) BaseURL() string { return c.url }
func (c testConfig) Timeout() int64  { return 5 }

func Test_OnGetRates_ShouldQueryLatestResource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "USD", r.URL.Query().Get("from"))
		_, _ = w.Write([]byte(`{"base":"USD","date":"2024-01-15","rates":{"KES":129,"EUR":0.9}}`))
	}))
	defer srv.Close()

	client := New(testConfig{url: srv.URL})
	rates, err := client.GetRates(context.Background(), "USD", "")

	require.NoError(t, err)
	assert.Equal(t, 129.0, rates["KES"])
	assert.Equal(t, 0.9, rates["EUR"])
}

func Test_OnGetRatesForDate_ShouldQueryDatedResource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2024-01-15", r.URL.Path)
		_, _ = w.Write([]byte(`{"base":"EUR","date":"2024-01-15","rates":{"USD":1.11}}`))
	}))
	defer srv.Close()

	client := New(testConfig{url: srv.URL})
	rates, err := client.GetRates(context.Background(), "EUR", "2024-01-15")

	require.NoError(t, err)
	assert.Equal(t, 1.11, rates["USD"])
}

func Test_OnServerError_ShouldFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(testConfig{url: srv.URL})
	_, err := client.GetRates(context.Background(), "USD", "")

	assert.Error(t, err)
}

func Test_OnMalformedBody_ShouldFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := New(testConfig{url: srv.URL})
	_, err := client.GetRates(context.Background(), "USD", "")

	assert.Error(t, err)
}

func Test_OnEmptyRates_ShouldFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"base":"USD","date":"2024-01-15","rates":{}}`))
	}))
	defer srv.Close()

	client := New(testConfig{url: srv.URL})
	_, err := client.GetRates(context.Background(), "USD", "")

	assert.Error(t, err)
}
