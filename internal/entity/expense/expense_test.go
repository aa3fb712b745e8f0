package expense

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() Draft {
	return Draft{
		Amount:      100,
		Currency:    "USD",
		Description: "groceries",
		Category:    "Food",
		Date:        NewDate(2024, time.January, 15),
	}
}

func Test_OnValidate_ShouldAcceptValidDraft(t *testing.T) {
	assert.NoError(t, validDraft().Validate())
}

func Test_OnValidate_ShouldRejectBadDrafts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Draft)
		want   error
	}{
		{"zero amount", func(d *Draft) { d.Amount = 0 }, ErrBadAmount},
		{"negative amount", func(d *Draft) { d.Amount = -10 }, ErrBadAmount},
		{"NaN amount", func(d *Draft) { d.Amount = math.NaN() }, ErrBadAmount},
		{"infinite amount", func(d *Draft) { d.Amount = math.Inf(1) }, ErrBadAmount},
		{"empty currency", func(d *Draft) { d.Currency = "" }, ErrEmptyCurrency},
		{"blank currency", func(d *Draft) { d.Currency = "  " }, ErrEmptyCurrency},
		{"empty category", func(d *Draft) { d.Category = "  " }, ErrEmptyCategory},
		{"zero date", func(d *Draft) { d.Date = Date{} }, ErrZeroDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			tt.mutate(&draft)
			err := draft.Validate()
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func Test_OnValidate_ShouldAcceptUnlistedCurrency(t *testing.T) {
	// a currency the rates API cannot quote degrades at conversion time,
	// it must not be rejected at entry
	draft := validDraft()
	draft.Currency = "XYZ"
	assert.NoError(t, draft.Validate())
}

func Test_OnValidate_ShouldAcceptEmptyDescription(t *testing.T) {
	draft := validDraft()
	draft.Description = ""
	assert.NoError(t, draft.Validate())
}

func Test_OnRecurrenceValidate_ShouldRejectUnknownRule(t *testing.T) {
	assert.NoError(t, Once.Validate())
	assert.NoError(t, Monthly.Validate())
	assert.True(t, errors.Is(Recurrence("yearly").Validate(), ErrBadRecurrence))
}

func Test_OnRecordRoundTrip_ShouldPreserveAllFields(t *testing.T) {
	rec := Record{
		ID:              1705312800123,
		Amount:          100.5,
		Currency:        "USD",
		ConvertedAmount: 12964.5,
		Description:     "groceries",
		Category:        "Food",
		Date:            NewDate(2024, time.January, 15),
	}

	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"date":"2024-01-15"`)

	var got Record
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, rec, got)
}
