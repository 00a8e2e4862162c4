package expenses

import (
	"time"

	"github.com/shopspring/decimal"

	"deputados/internal/core"
)

// DefaultYears is how many years the year selector offers.
const DefaultYears = 4

// Summary is everything the expense dashboard shows for one year.
type Summary struct {
	DeputyID     int
	Year         int
	Total        decimal.Decimal
	Count        int
	ByMonth      []core.MonthTotal
	ByCategory   []core.CategoryTotal
	Principal    core.CategoryTotal
	HasPrincipal bool
	FailedMonths []int
	Complete     bool
}

// Summarize aggregates the months of r that succeeded. Complete is false when
// any month failed; the totals then cover the remaining months only. The
// month range comes from r.Now so it matches the months that were fetched.
func Summarize(r YearResult) Summary {
	items := r.Expenses()
	byCategory := core.GroupByCategory(items)
	principal, ok := core.PrincipalCategory(byCategory)

	failed := r.Failed()
	if failed == nil {
		failed = []int{}
	}
	return Summary{
		DeputyID:     r.DeputyID,
		Year:         r.Year,
		Total:        core.Total(items),
		Count:        len(items),
		ByMonth:      core.GroupByMonth(items, r.Year, r.Now),
		ByCategory:   byCategory,
		Principal:    principal,
		HasPrincipal: ok,
		FailedMonths: failed,
		Complete:     len(failed) == 0,
	}
}

// Years returns the selectable years, newest first: the current year and the
// n-1 before it.
func Years(now time.Time, n int) []int {
	if n <= 0 {
		n = DefaultYears
	}
	out := make([]int, n)
	for i := range out {
		out[i] = now.Year() - i
	}
	return out
}
