package recur

import (
	"time"

	"github.com/jinzhu/now"

	"max.ks1230/expense-tracker/internal/entity/expense"
)

// DefaultHorizon is the total number of occurrences a recurring expense
// materializes into, the original one included.
const DefaultHorizon = 12

// Expand materializes a draft into the ordered series of dated drafts a
// recurrence rule produces. The original draft comes first; each following
// occurrence advances from the previous one's date, so the series is chained
// rather than computed off the start date. All fields except the date are
// copied verbatim. Ids are assigned later, at insertion.
func Expand(draft expense.Draft, rule expense.Recurrence, horizon int) []expense.Draft {
	if rule == expense.Once {
		return []expense.Draft{draft}
	}
	if horizon <= 0 {
		horizon = DefaultHorizon
	}

	res := make([]expense.Draft, 0, horizon)
	res = append(res, draft)

	date := draft.Date.Time
	for i := 1; i < horizon; i++ {
		date = advance(date, rule)
		next := draft
		next.Date = expense.Date{Time: date}
		res = append(res, next)
	}
	return res
}

func advance(date time.Time, rule expense.Recurrence) time.Time {
	switch rule {
	case expense.Daily:
		return date.AddDate(0, 0, 1)
	case expense.Weekly:
		return date.AddDate(0, 0, 7)
	case expense.Monthly:
		return addMonth(date)
	}
	return date
}

// addMonth advances by one calendar month, clamping to the last day when the
// target month is shorter (Jan 31 -> Feb 28/29). The clamped day does not
// stick: the next advancement chains from the clamped date.
func addMonth(date time.Time) time.Time {
	next := date.AddDate(0, 1, 0)
	if next.Day() < date.Day() {
		// AddDate rolled into the following month
		next = now.With(next).BeginningOfMonth().AddDate(0, 0, -1)
	}
	return next
}
