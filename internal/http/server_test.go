package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"deputados/internal/camara"
	"deputados/internal/camara/memory"
	"deputados/internal/core"
	"deputados/internal/expenses"
	"deputados/internal/log"
)

var fixedNow = time.Date(2025, time.May, 17, 10, 0, 0, 0, time.UTC)

func quietLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newTestServer(t *testing.T, src camara.Source, opts Options) *Server {
	t.Helper()
	opts.Logger = quietLogger()
	if opts.RateLimit == 0 {
		opts.RateLimit = 1000
	}
	fetcher := expenses.NewFetcher(src,
		expenses.WithClock(func() time.Time { return fixedNow }),
		expenses.WithLogger(opts.Logger))
	srv := NewServer(opts, src, fetcher)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func get(srv *Server, target string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "203.0.113.9:4000"
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body core.ErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body %q: %v", rr.Body.String(), err)
	}
	return body.Error
}

func seededStore() *memory.Store {
	s := memory.New()
	s.AddDeputy(core.DeputyDetail{ID: 204554, CivilName: "Fulano de Tal", Status: core.Status{Name: "Fulano", Party: "PT", State: "SP"}})
	for m := 1; m <= 12; m++ {
		s.AddExpenses(204554,
			core.Expense{Year: 2024, Month: m, Type: "DIVULGAÇÃO DA ATIVIDADE PARLAMENTAR.", NetValue: decimal.NewFromInt(100)},
			core.Expense{Year: 2024, Month: m, Type: "COMBUSTÍVEIS E LUBRIFICANTES.", NetValue: decimal.NewFromInt(50)},
		)
	}
	s.AddVotes(core.Vote{ID: "2438432-8", Description: "Aprovado o requerimento", Approval: core.Approval{Known: true, Passed: true}})
	return s
}

func TestExpensesMissingParameters(t *testing.T) {
	store := seededStore()
	srv := newTestServer(t, store, Options{})

	for _, target := range []string{
		"/api/deputados/204554/despesas",
		"/api/deputados/204554/despesas?ano=2024",
		"/api/deputados/204554/despesas?mes=3",
		"/api/deputados/204554/despesas?ano=&mes=3",
	} {
		rr := get(srv, target)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d", target, rr.Code)
		}
		if msg := errorMessage(t, rr); msg != "Missing required parameters" {
			t.Fatalf("%s: error=%q", target, msg)
		}
	}
	if store.Calls() != 0 {
		t.Fatalf("upstream called %d times", store.Calls())
	}
}

func TestExpensesInvalidParameters(t *testing.T) {
	store := seededStore()
	srv := newTestServer(t, store, Options{})

	for _, target := range []string{
		"/api/deputados/204554/despesas?ano=2024&mes=13",
		"/api/deputados/204554/despesas?ano=dois&mes=3",
		"/api/deputados/abc/despesas?ano=2024&mes=3",
	} {
		rr := get(srv, target)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d", target, rr.Code)
		}
	}
	if store.Calls() != 0 {
		t.Fatalf("upstream called %d times", store.Calls())
	}
}

func TestExpensesPassthrough(t *testing.T) {
	srv := newTestServer(t, seededStore(), Options{})

	rr := get(srv, "/api/deputados/204554/despesas?ano=2024&mes=3")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var env core.Envelope[[]core.Expense]
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Data) != 2 || env.Data[0].Month != 3 {
		t.Fatalf("dados=%+v", env.Data)
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("content-type=%q", rr.Header().Get("Content-Type"))
	}
}

// fakeUpstream serves canned answers per path and counts hits.
func fakeUpstream(t *testing.T, routes map[string]func(http.ResponseWriter, *http.Request)) (*camara.Client, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if h, ok := routes[r.URL.Path]; ok {
			h(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(up.Close)
	c, err := camara.New(up.URL, 2*time.Second, camara.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("camara.New: %v", err)
	}
	return c, &hits
}

func TestUpstreamFailureMapping(t *testing.T) {
	client, _ := fakeUpstream(t, map[string]func(http.ResponseWriter, *http.Request){
		"/deputados/1/despesas": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
		"/deputados/2/despesas": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "<html>oops</html>")
		},
		"/votacoes": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"/deputados": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"dados":[]}`)
		},
	})
	srv := newTestServer(t, client, Options{})

	tests := []struct {
		target string
		status int
		msg    string
	}{
		{"/api/deputados/1/despesas?ano=2024&mes=1", http.StatusServiceUnavailable, "Erro da API da Câmara: status 503"},
		{"/api/deputados/2/despesas?ano=2024&mes=1", http.StatusInternalServerError, "Erro interno ao buscar despesas"},
		{"/api/deputados/999", http.StatusNotFound, "Failed to fetch deputy details"},
		{"/api/votacoes", http.StatusInternalServerError, "Failed to fetch voting data"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rr := get(srv, tt.target)
			if rr.Code != tt.status {
				t.Fatalf("status=%d want %d", rr.Code, tt.status)
			}
			if msg := errorMessage(t, rr); msg != tt.msg {
				t.Fatalf("error=%q want %q", msg, tt.msg)
			}
		})
	}

	rr := get(srv, "/api/deputados?nome=ninguem")
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != `{"dados":[]}` {
		t.Fatalf("empty search: %d %s", rr.Code, rr.Body.String())
	}
}

func TestNetworkFailureIs500(t *testing.T) {
	up := httptest.NewServer(http.NotFoundHandler())
	client, err := camara.New(up.URL, time.Second, camara.WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	up.Close()
	srv := newTestServer(t, client, Options{})

	rr := get(srv, "/api/deputados?nome=Silva")
	if rr.Code != http.StatusInternalServerError || errorMessage(t, rr) != "Failed to search deputies" {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestListingsAreMemoized(t *testing.T) {
	client, hits := fakeUpstream(t, map[string]func(http.ResponseWriter, *http.Request){
		"/votacoes": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"dados":[{"id":"1-1","aprovacao":1}]}`)
		},
		"/deputados": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"dados":[{"id":1,"nome":"A"}]}`)
		},
	})
	srv := newTestServer(t, client, Options{CacheTTL: time.Minute})

	for i := 0; i < 3; i++ {
		if rr := get(srv, "/api/votacoes"); rr.Code != http.StatusOK {
			t.Fatalf("votes status=%d", rr.Code)
		}
		if rr := get(srv, "/api/deputados"); rr.Code != http.StatusOK {
			t.Fatalf("deputies status=%d", rr.Code)
		}
	}
	if hits.Load() != 2 {
		t.Fatalf("upstream hits=%d want 2", hits.Load())
	}

	get(srv, "/api/deputados?nome=A")
	get(srv, "/api/deputados?nome=A")
	if hits.Load() != 4 {
		t.Fatalf("searches should not be memoized, hits=%d", hits.Load())
	}

	rr := get(srv, "/api/votacoes")
	if rr.Header().Get("Cache-Control") != "public, max-age=60" {
		t.Fatalf("cache-control=%q", rr.Header().Get("Cache-Control"))
	}
}

// mapCache is a Cache without expiry or stats, standing in for a shared
// store such as Redis.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *mapCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *mapCache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

func (c *mapCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

func (c *mapCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

func TestCustomListingCache(t *testing.T) {
	client, hits := fakeUpstream(t, map[string]func(http.ResponseWriter, *http.Request){
		"/votacoes": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"dados":[]}`)
		},
	})
	shared := &mapCache{data: map[string][]byte{}}
	srv := newTestServer(t, client, Options{Listings: shared})

	get(srv, "/api/votacoes")
	get(srv, "/api/votacoes")
	if hits.Load() != 1 || shared.Size() != 1 {
		t.Fatalf("hits=%d entries=%d", hits.Load(), shared.Size())
	}

	rr := get(srv, "/metrics")
	if !strings.Contains(rr.Body.String(), "listing_cache_entries 1") {
		t.Errorf("metrics missing entry count:\n%s", rr.Body.String())
	}
}

func TestDashboardPartialFailure(t *testing.T) {
	store := seededStore()
	store.FailMonth(204554, 2024, 3, core.UpstreamStatusError(log.OpExpenses, 500))
	store.FailMonth(204554, 2024, 7, core.NetworkError(log.OpExpenses, errors.New("timeout")))
	srv := newTestServer(t, store, Options{})

	rr := get(srv, "/api/deputados/204554/dashboard?ano=2024")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var env core.Envelope[dashboardView]
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	d := env.Data
	if d.Count != 20 || !d.Total.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("count=%d total=%s", d.Count, d.Total)
	}
	if d.Formatted != "R$ 1.500,00" {
		t.Fatalf("formatted=%q", d.Formatted)
	}
	if len(d.ByMonth) != 12 || d.ByMonth[0].Label != "JAN" || !d.ByMonth[2].Total.IsZero() {
		t.Fatalf("porMes=%+v", d.ByMonth)
	}
	if d.Complete || len(d.FailedMonths) != 2 || d.FailedMonths[0] != 3 || d.FailedMonths[1] != 7 {
		t.Fatalf("completo=%v falhas=%v", d.Complete, d.FailedMonths)
	}
	if d.Principal == nil || d.Principal.Category != "DIVULGAÇÃO DA ATIVIDADE PARLAMENTAR." {
		t.Fatalf("principal=%+v", d.Principal)
	}
}

func TestDashboardMonthsFollowFetchAcrossMonthBoundary(t *testing.T) {
	readings := []time.Time{
		time.Date(2025, time.May, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2025, time.May, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2025, time.June, 1, 0, 0, 1, 0, time.UTC),
	}
	var mu sync.Mutex
	calls := 0
	tick := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		reading := readings[min(calls, len(readings)-1)]
		calls++
		return reading
	}
	store := seededStore()
	opts := Options{Logger: quietLogger(), RateLimit: 1000}
	fetcher := expenses.NewFetcher(store, expenses.WithClock(tick), expenses.WithLogger(opts.Logger))
	srv := NewServer(opts, store, fetcher)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	rr := get(srv, "/api/deputados/204554/dashboard")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var env core.Envelope[dashboardView]
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := len(env.Data.ByMonth); got != 5 {
		t.Fatalf("porMes has %d months, want the 5 that were fetched", got)
	}
	if !env.Data.Complete || len(env.Data.FailedMonths) != 0 {
		t.Fatalf("completo=%v mesesComFalha=%v", env.Data.Complete, env.Data.FailedMonths)
	}
}

func TestDashboardYearHandling(t *testing.T) {
	store := seededStore()
	srv := newTestServer(t, store, Options{})

	rr := get(srv, "/api/deputados/204554/dashboard")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var env core.Envelope[dashboardView]
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Data.Year != 2025 || len(env.Data.ByMonth) != 5 {
		t.Fatalf("ano=%d meses=%d", env.Data.Year, len(env.Data.ByMonth))
	}

	calls := store.Calls()
	if rr := get(srv, "/api/deputados/204554/dashboard?ano=2026"); rr.Code != http.StatusBadRequest {
		t.Fatalf("future year status=%d", rr.Code)
	}
	if store.Calls() != calls {
		t.Fatal("future year reached upstream")
	}
}

func TestYears(t *testing.T) {
	srv := newTestServer(t, seededStore(), Options{YearsBack: 4})

	rr := get(srv, "/api/anos")
	if strings.TrimSpace(rr.Body.String()) != `{"dados":[2025,2024,2023,2022]}` {
		t.Fatalf("body=%s", rr.Body.String())
	}
}

func TestHealthAndReady(t *testing.T) {
	store := seededStore()
	srv := newTestServer(t, store, Options{CacheTTL: time.Millisecond})

	if rr := get(srv, "/healthz"); rr.Code != http.StatusOK {
		t.Fatalf("healthz=%d", rr.Code)
	}
	if rr := get(srv, "/readyz"); rr.Code != http.StatusOK {
		t.Fatalf("readyz=%d body=%s", rr.Code, rr.Body.String())
	}

	store.FailAll(core.NetworkError(log.OpVotes, errors.New("down")))
	time.Sleep(5 * time.Millisecond)
	if rr := get(srv, "/readyz"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz while upstream down=%d", rr.Code)
	}
}

func TestMiddlewareChain(t *testing.T) {
	srv := newTestServer(t, seededStore(), Options{CORSOrigins: []string{"http://localhost:3000"}})

	rr := get(srv, "/api/anos", "Origin", "http://localhost:3000")
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("cors header=%q", rr.Header().Get("Access-Control-Allow-Origin"))
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("security headers missing")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("request id missing")
	}

	rr = get(srv, "/api/anos", "Origin", "https://evil.example")
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unexpected origin allowed")
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, seededStore(), Options{RateLimit: 2})

	for i := 0; i < 2; i++ {
		if rr := get(srv, "/api/anos"); rr.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i+1, rr.Code)
		}
	}
	rr := get(srv, "/api/anos")
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("status=%d retry-after=%q", rr.Code, rr.Header().Get("Retry-After"))
	}
	if rr := get(srv, "/healthz"); rr.Code != http.StatusOK {
		t.Fatal("health checks must not be rate limited")
	}
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, seededStore(), Options{})
	get(srv, "/api/votacoes")
	get(srv, "/api/votacoes")

	body := get(srv, "/metrics").Body.String()
	for _, want := range []string{"http_requests_total 2", "listing_cache_hits_total 1", "listing_cache_misses_total 1"} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}
