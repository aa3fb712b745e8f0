package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"max.ks1230/expense-tracker/internal/model/ledger"
)

type CategoryTotal struct {
	Category string
	Amount   float64
}

// Summary is a pure derivation over a ledger snapshot: the running total, the
// per-category breakdown and the budget delta, all in the base currency.
type Summary struct {
	BaseCurrency string
	Total        float64
	Categories   []CategoryTotal
	BudgetSet    bool
	Remaining    float64
}

func Summarize(snap ledger.Snapshot) Summary {
	m := make(map[string]float64)
	total := 0.0
	for _, rec := range snap.Records {
		m[rec.Category] += rec.ConvertedAmount
		total += rec.ConvertedAmount
	}

	categories := make([]CategoryTotal, 0, len(m))
	for cat, amount := range m {
		categories = append(categories, CategoryTotal{Category: cat, Amount: amount})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Amount != categories[j].Amount {
			return categories[i].Amount > categories[j].Amount
		}
		return categories[i].Category < categories[j].Category
	})

	return Summary{
		BaseCurrency: snap.BaseCurrency,
		Total:        total,
		Categories:   categories,
		BudgetSet:    snap.BudgetSet,
		Remaining:    snap.Budget - total,
	}
}

// Render formats the summary the way the expense list shows it: category rows
// sorted by amount, the total, and the budget alert when a budget is set.
func (s Summary) Render() string {
	res := make([]string, 0, len(s.Categories)+3)
	for _, cat := range s.Categories {
		res = append(res, fmt.Sprintf("%s: %.2f", cat.Category, cat.Amount))
	}
	res = append(res, "", fmt.Sprintf("Total: %.2f %s", s.Total, s.BaseCurrency))
	if s.BudgetSet {
		if s.Remaining >= 0 {
			res = append(res, fmt.Sprintf("Remaining: %.2f %s", s.Remaining, s.BaseCurrency))
		} else {
			res = append(res, fmt.Sprintf("Over budget by %.2f %s", math.Abs(s.Remaining), s.BaseCurrency))
		}
	}
	return strings.Join(res, "\n")
}
