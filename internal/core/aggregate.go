package core

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// MonthTotal is the summed net value of one calendar month.
	MonthTotal struct {
		Month int
		Total decimal.Decimal
	}

	// CategoryTotal is the summed net value of one expense type.
	CategoryTotal struct {
		Category string
		Total    decimal.Decimal
	}
)

// MonthsFor returns how many months of year have elapsed at now: 12 for past
// years, the current month for the current year and 0 for future years.
func MonthsFor(year int, now time.Time) int {
	switch {
	case year < now.Year():
		return 12
	case year == now.Year():
		return int(now.Month())
	default:
		return 0
	}
}

// GroupByMonth sums net values per month and returns one entry for every
// month from January to MonthsFor(year, now), in ascending order. Months
// without expenses are present with a zero total.
func GroupByMonth(expenses []Expense, year int, now time.Time) []MonthTotal {
	byMonth := make(map[int]decimal.Decimal, 12)
	for _, e := range expenses {
		byMonth[e.Month] = byMonth[e.Month].Add(e.NetValue)
	}

	n := MonthsFor(year, now)
	out := make([]MonthTotal, 0, n)
	for m := 1; m <= n; m++ {
		total, ok := byMonth[m]
		if !ok {
			total = decimal.Zero
		}
		out = append(out, MonthTotal{Month: m, Total: total})
	}
	return out
}

// GroupByCategory sums net values per expense type. Entries are sorted by
// descending total; equal totals keep the order in which the category was
// first seen in expenses.
func GroupByCategory(expenses []Expense) []CategoryTotal {
	index := make(map[string]int)
	out := make([]CategoryTotal, 0)
	for _, e := range expenses {
		i, ok := index[e.Type]
		if !ok {
			i = len(out)
			index[e.Type] = i
			out = append(out, CategoryTotal{Category: e.Type, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(e.NetValue)
	}

	slices.SortStableFunc(out, func(a, b CategoryTotal) int {
		return b.Total.Cmp(a.Total)
	})
	return out
}

// Total sums the net value of all expenses.
func Total(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.NetValue)
	}
	return total
}

// PrincipalCategory is the category with the highest total, if any.
func PrincipalCategory(byCategory []CategoryTotal) (CategoryTotal, bool) {
	if len(byCategory) == 0 {
		return CategoryTotal{}, false
	}
	return byCategory[0], true
}
