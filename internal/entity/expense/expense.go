package expense

import (
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const DateLayout = "2006-01-02"

// ErrValidation is the root of every rejection produced by draft validation.
// Callers match it with errors.Is.
var ErrValidation = errors.New("validation failed")

var (
	ErrBadAmount     = errors.Wrap(ErrValidation, "amount must be a positive finite number")
	ErrEmptyCurrency = errors.Wrap(ErrValidation, "missing currency")
	ErrEmptyCategory = errors.Wrap(ErrValidation, "empty category")
	ErrZeroDate      = errors.Wrap(ErrValidation, "date is not set")
	ErrBadRecurrence = errors.Wrap(ErrValidation, "unknown recurrence rule")
)

type Recurrence string

const (
	Once    Recurrence = "once"
	Daily   Recurrence = "daily"
	Weekly  Recurrence = "weekly"
	Monthly Recurrence = "monthly"
)

func (r Recurrence) Validate() error {
	switch r {
	case Once, Daily, Weekly, Monthly:
		return nil
	}
	return ErrBadRecurrence
}

// Date is a calendar day without a time component. It marshals to the
// 2006-01-02 form the stored ledger uses.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return errors.Wrap(err, "parse date")
	}
	d.Time = t
	return nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Draft is a user-supplied expense before id assignment and conversion.
type Draft struct {
	Amount      float64
	Currency    string
	Description string
	Category    string
	Date        Date
}

// Validate rejects malformed fields only. A currency nobody can quote a rate
// for is not a draft problem: the lookup degrades to 1:1 instead, so a rates
// outage never blocks expense entry.
func (d Draft) Validate() error {
	if d.Amount <= 0 || math.IsNaN(d.Amount) || math.IsInf(d.Amount, 0) {
		return ErrBadAmount
	}
	if strings.TrimSpace(d.Currency) == "" {
		return ErrEmptyCurrency
	}
	if strings.TrimSpace(d.Category) == "" {
		return ErrEmptyCategory
	}
	if d.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// Record is a stored expense. Amount stays in the original currency forever;
// ConvertedAmount is kept in the ledger's current base currency.
type Record struct {
	ID              int64   `json:"id"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	ConvertedAmount float64 `json:"convertedAmount"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	Date            Date    `json:"date"`
}
