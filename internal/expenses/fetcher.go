// Package expenses fetches a deputy's expenses for a whole year, one request
// per month, and summarizes them for the dashboard.
package expenses

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"deputados/internal/camara"
	"deputados/internal/core"
	"deputados/internal/log"
)

// DefaultConcurrency allows every month of a year to be in flight at once.
const DefaultConcurrency = 12

// MonthResult is the outcome of fetching a single month.
type MonthResult struct {
	Month    int
	Expenses []core.Expense
	Err      error
}

func (m MonthResult) OK() bool { return m.Err == nil }

// YearResult holds one MonthResult per applicable month, in month order.
// Now is the clock reading that decided which months apply.
type YearResult struct {
	DeputyID int
	Year     int
	Now      time.Time
	Months   []MonthResult
}

// Expenses concatenates the expenses of every month that succeeded.
func (r YearResult) Expenses() []core.Expense {
	n := 0
	for _, m := range r.Months {
		if m.OK() {
			n += len(m.Expenses)
		}
	}
	out := make([]core.Expense, 0, n)
	for _, m := range r.Months {
		if m.OK() {
			out = append(out, m.Expenses...)
		}
	}
	return out
}

// Failed lists the months whose fetch failed.
func (r YearResult) Failed() []int {
	var out []int
	for _, m := range r.Months {
		if !m.OK() {
			out = append(out, m.Month)
		}
	}
	return out
}

// AllFailed reports whether there was at least one month and none succeeded.
func (r YearResult) AllFailed() bool {
	return len(r.Months) > 0 && len(r.Failed()) == len(r.Months)
}

type Fetcher struct {
	lister camara.ExpenseLister
	limit  int
	now    func() time.Time
	logger *log.Logger
	events *log.StructuredLogger
}

type Option func(*Fetcher)

// WithConcurrency bounds the number of months fetched at the same time.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.limit = n
		}
	}
}

// WithClock replaces time.Now, which decides how many months a year has.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

func NewFetcher(lister camara.ExpenseLister, opts ...Option) *Fetcher {
	f := &Fetcher{
		lister: lister,
		limit:  DefaultConcurrency,
		now:    time.Now,
		logger: log.New(log.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.WithComponent(log.ComponentExpenses)
	f.events = log.NewStructuredLogger(f.logger)
	return f
}

// Now is the fetcher's clock.
func (f *Fetcher) Now() time.Time { return f.now() }

// FetchYear requests every elapsed month of year concurrently and waits for
// all of them. A failed month is recorded in its MonthResult and never
// cancels the others; FetchYear itself does not fail.
func (f *Fetcher) FetchYear(ctx context.Context, deputyID, year int) YearResult {
	now := f.now()
	n := core.MonthsFor(year, now)
	res := YearResult{DeputyID: deputyID, Year: year, Now: now, Months: make([]MonthResult, n)}
	if n == 0 {
		return res
	}

	start := time.Now()
	var g errgroup.Group
	g.SetLimit(f.limit)
	for i := range n {
		month := i + 1
		g.Go(func() error {
			items, err := f.lister.ListExpenses(ctx, deputyID, year, month)
			if items == nil && err == nil {
				items = []core.Expense{}
			}
			res.Months[i] = MonthResult{Month: month, Expenses: items, Err: err}
			if err != nil {
				f.events.LogUpstreamFailure(ctx, log.OpExpenses, deputyID, year, month, errorType(err), err)
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := res.Failed()
	level := f.logger.DebugContext
	if len(failed) > 0 {
		level = f.logger.WarnContext
	}
	level(ctx, "Year fetch settled",
		log.FieldOperation, log.OpFetchYear,
		log.FieldDeputyID, deputyID,
		log.FieldYear, year,
		"months", n,
		"failed_months", failed,
		log.FieldDuration, time.Since(start).Milliseconds())
	return res
}

func errorType(err error) string {
	if camara.IsTimeout(err) {
		return "timeout"
	}
	return core.KindOf(err).String()
}
