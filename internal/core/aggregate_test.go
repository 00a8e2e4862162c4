package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func exp(month int, kind, net string) Expense {
	return Expense{Month: month, Type: kind, NetValue: d(net)}
}

var now = time.Date(2025, time.May, 17, 10, 0, 0, 0, time.UTC)

func TestMonthsFor(t *testing.T) {
	cases := []struct {
		year int
		want int
	}{
		{2019, 12},
		{2024, 12},
		{2025, 5},
		{2026, 0},
	}
	for _, tc := range cases {
		if got := MonthsFor(tc.year, now); got != tc.want {
			t.Fatalf("MonthsFor(%d) = %d, want %d", tc.year, got, tc.want)
		}
	}
}

func TestGroupByMonthPastYear(t *testing.T) {
	in := []Expense{exp(1, "A", "100"), exp(1, "A", "50"), exp(3, "B", "25")}
	got := GroupByMonth(in, 2024, now)

	if len(got) != 12 {
		t.Fatalf("expected 12 months, got %d", len(got))
	}
	want := map[int]string{1: "150", 3: "25"}
	for i, mt := range got {
		if mt.Month != i+1 {
			t.Fatalf("entry %d has month %d", i, mt.Month)
		}
		w := "0"
		if v, ok := want[mt.Month]; ok {
			w = v
		}
		if !mt.Total.Equal(d(w)) {
			t.Fatalf("month %d total = %s, want %s", mt.Month, mt.Total, w)
		}
	}
}

func TestGroupByMonthCurrentYear(t *testing.T) {
	in := []Expense{exp(2, "A", "10.10"), exp(5, "A", "0.20"), exp(5, "B", "0.10")}
	got := GroupByMonth(in, 2025, now)

	if len(got) != 5 {
		t.Fatalf("expected 5 months, got %d", len(got))
	}
	if got[4].Month != 5 || !got[4].Total.Equal(d("0.30")) {
		t.Fatalf("may total = %+v", got[4])
	}
	if !got[1].Total.Equal(d("10.10")) {
		t.Fatalf("february total = %s", got[1].Total)
	}
}

func TestGroupByMonthEmptyAndFuture(t *testing.T) {
	got := GroupByMonth(nil, 2023, now)
	if len(got) != 12 {
		t.Fatalf("expected zero-filled year, got %d entries", len(got))
	}
	for _, mt := range got {
		if !mt.Total.IsZero() {
			t.Fatalf("month %d should be zero", mt.Month)
		}
	}
	if got := GroupByMonth([]Expense{exp(1, "A", "1")}, 2030, now); len(got) != 0 {
		t.Fatalf("future year should have no months, got %d", len(got))
	}
}

func TestGroupByCategory(t *testing.T) {
	in := []Expense{
		exp(1, "Combustível", "100"),
		exp(2, "Hospedagem", "300"),
		exp(3, "Combustível", "50"),
	}
	got := GroupByCategory(in)

	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(got))
	}
	if got[0].Category != "Hospedagem" || !got[0].Total.Equal(d("300")) {
		t.Fatalf("first = %+v", got[0])
	}
	if got[1].Category != "Combustível" || !got[1].Total.Equal(d("150")) {
		t.Fatalf("second = %+v", got[1])
	}

	p, ok := PrincipalCategory(got)
	if !ok || p.Category != "Hospedagem" {
		t.Fatalf("principal = %+v", p)
	}
}

func TestGroupByCategoryProperties(t *testing.T) {
	in := []Expense{
		exp(1, "Telefonia", "12.34"),
		exp(1, "Passagens", "999.99"),
		exp(2, "Correios", "12.34"),
		exp(4, "Telefonia", "0.01"),
		exp(5, "Divulgação", "500"),
		exp(6, "Correios", "0.01"),
	}
	got := GroupByCategory(in)

	if len(got) != 4 {
		t.Fatalf("expected 4 distinct categories, got %d", len(got))
	}
	sum := decimal.Zero
	for i, ct := range got {
		sum = sum.Add(ct.Total)
		if i > 0 && got[i-1].Total.LessThan(ct.Total) {
			t.Fatalf("entries not non-increasing at %d: %s < %s", i, got[i-1].Total, ct.Total)
		}
	}
	if !sum.Equal(Total(in)) {
		t.Fatalf("sum of categories %s != total %s", sum, Total(in))
	}
}

func TestGroupByCategoryTieKeepsFirstSeen(t *testing.T) {
	in := []Expense{
		exp(1, "Telefonia", "10"),
		exp(1, "Correios", "10"),
		exp(2, "Passagens", "20"),
		exp(2, "Alimentação", "10"),
	}
	got := GroupByCategory(in)
	order := []string{"Passagens", "Telefonia", "Correios", "Alimentação"}
	for i, name := range order {
		if got[i].Category != name {
			t.Fatalf("position %d = %s, want %s (got %+v)", i, got[i].Category, name, got)
		}
	}
}

func TestAggregationsAreIdempotent(t *testing.T) {
	in := []Expense{exp(1, "A", "1.5"), exp(2, "B", "2.5"), exp(2, "A", "1")}
	snapshot := make([]Expense, len(in))
	copy(snapshot, in)

	m1, m2 := GroupByMonth(in, 2024, now), GroupByMonth(in, 2024, now)
	c1, c2 := GroupByCategory(in), GroupByCategory(in)

	for i := range m1 {
		if m1[i].Month != m2[i].Month || !m1[i].Total.Equal(m2[i].Total) {
			t.Fatalf("month aggregation differs at %d", i)
		}
	}
	for i := range c1 {
		if c1[i].Category != c2[i].Category || !c1[i].Total.Equal(c2[i].Total) {
			t.Fatalf("category aggregation differs at %d", i)
		}
	}
	for i := range in {
		if in[i].Type != snapshot[i].Type || !in[i].NetValue.Equal(snapshot[i].NetValue) {
			t.Fatalf("input mutated at %d", i)
		}
	}
}

func TestPrincipalCategoryEmpty(t *testing.T) {
	if _, ok := PrincipalCategory(GroupByCategory(nil)); ok {
		t.Fatalf("empty input has no principal category")
	}
}
