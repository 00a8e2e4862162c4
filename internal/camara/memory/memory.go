// Package memory is an in-process stand-in for the open-data API. It serves
// fixed data, can be told to fail specific calls and counts every call.
package memory

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	json "github.com/goccy/go-json"

	"deputados/internal/camara"
	"deputados/internal/core"
	"deputados/internal/log"
)

type Store struct {
	mu         sync.Mutex
	deputies   []core.DeputySummary
	details    map[int]core.DeputyDetail
	expenses   map[monthKey][]core.Expense
	votes      []core.Vote
	failures   map[monthKey]error
	failAll    error
	calls      atomic.Int64
	monthCalls map[monthKey]int
}

type monthKey struct {
	deputy, year, month int
}

var _ camara.Source = (*Store)(nil)

func New() *Store {
	return &Store{
		details:    make(map[int]core.DeputyDetail),
		expenses:   make(map[monthKey][]core.Expense),
		failures:   make(map[monthKey]error),
		monthCalls: make(map[monthKey]int),
	}
}

// AddDeputy registers a deputy for listing, search and detail lookups.
func (s *Store) AddDeputy(d core.DeputyDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[d.ID] = d
	s.deputies = append(s.deputies, core.DeputySummary{
		ID:       d.ID,
		Name:     d.Status.Name,
		Party:    d.Status.Party,
		State:    d.Status.State,
		PhotoURL: d.Status.PhotoURL,
	})
}

// AddExpenses files expenses under their own year and month.
func (s *Store) AddExpenses(deputyID int, items ...core.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range items {
		k := monthKey{deputyID, e.Year, e.Month}
		s.expenses[k] = append(s.expenses[k], e)
	}
}

func (s *Store) AddVotes(votes ...core.Vote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes = append(s.votes, votes...)
}

// FailMonth makes ListExpenses for that month return err.
func (s *Store) FailMonth(deputyID, year, month int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[monthKey{deputyID, year, month}] = err
}

// FailAll makes every call return err; nil restores normal behavior.
func (s *Store) FailAll(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAll = err
}

// Calls is the number of calls served or failed so far.
func (s *Store) Calls() int64 { return s.calls.Load() }

// MonthCalls is how many times one month was requested.
func (s *Store) MonthCalls(deputyID, year, month int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monthCalls[monthKey{deputyID, year, month}]
}

func (s *Store) SearchDeputies(_ context.Context, name string) ([]core.DeputySummary, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	out := make([]core.DeputySummary, 0)
	for _, d := range s.deputies {
		if needle == "" || strings.Contains(strings.ToLower(d.Name), needle) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Store) ListDeputies(ctx context.Context) ([]core.DeputySummary, error) {
	return s.SearchDeputies(ctx, "")
}

func (s *Store) GetDeputy(_ context.Context, id int) (core.DeputyDetail, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return core.DeputyDetail{}, s.failAll
	}
	d, ok := s.details[id]
	if !ok {
		return core.DeputyDetail{}, core.UpstreamStatusError(log.OpDeputy, 404)
	}
	return d, nil
}

func (s *Store) ListExpenses(_ context.Context, deputyID, year, month int) ([]core.Expense, error) {
	if _, err := camara.ExpensesRequest(deputyID, year, month); err != nil {
		return nil, err
	}
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	k := monthKey{deputyID, year, month}
	s.monthCalls[k]++
	if s.failAll != nil {
		return nil, s.failAll
	}
	if err, ok := s.failures[k]; ok {
		return nil, err
	}
	return append([]core.Expense{}, s.expenses[k]...), nil
}

func (s *Store) ListVotes(_ context.Context) ([]core.Vote, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	return append([]core.Vote{}, s.votes...), nil
}

// Raw answers a passthrough request with the same envelope the API uses.
func (s *Store) Raw(ctx context.Context, req camara.Request) ([]byte, error) {
	var data any
	var err error

	parts := strings.Split(strings.Trim(req.Path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "votacoes":
		data, err = s.ListVotes(ctx)
	case len(parts) == 1 && parts[0] == "deputados":
		data, err = s.SearchDeputies(ctx, req.Query.Get("nome"))
	case len(parts) == 2 && parts[0] == "deputados":
		data, err = s.GetDeputy(ctx, atoi(parts[1]))
	case len(parts) == 3 && parts[0] == "deputados" && parts[2] == "despesas":
		data, err = s.ListExpenses(ctx, atoi(parts[1]), queryInt(req.Query, "ano"), queryInt(req.Query, "mes"))
	default:
		s.calls.Add(1)
		return nil, core.UpstreamStatusError(req.Op, 404)
	}
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(core.Envelope[any]{Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return body, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func queryInt(q url.Values, key string) int {
	return atoi(q.Get(key))
}
