package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(rpm int) (*Limiter, *time.Time) {
	rl := NewLimiter(Config{RequestsPerMinute: rpm})
	clock := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	return rl, &clock
}

func TestAllowWithinWindow(t *testing.T) {
	rl, clock := newTestLimiter(3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("fourth request allowed")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other client affected")
	}

	*clock = clock.Add(time.Minute)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("window did not reset")
	}
	if m := rl.GetMetrics(); m.Rejected != 1 || m.ClientCount != 2 {
		t.Fatalf("metrics=%+v", m)
	}
}

func TestSteadyTrafficStillLimited(t *testing.T) {
	rl, clock := newTestLimiter(2)
	defer rl.Stop()

	rl.Allow("a")
	*clock = clock.Add(20 * time.Second)
	rl.Allow("a")
	*clock = clock.Add(20 * time.Second)
	if rl.Allow("a") {
		t.Fatal("requests spread within one minute should still count")
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(5)
	defer rl.Stop()

	rl.Allow("old")
	*clock = clock.Add(11 * time.Minute)
	rl.Allow("new")
	if n := rl.cleanupStaleEntries(); n != 1 || rl.ActiveClients() != 1 {
		t.Fatalf("removed=%d active=%d", n, rl.ActiveClients())
	}
}

func TestMiddlewareSetsRetryAfter(t *testing.T) {
	rl, clock := newTestLimiter(1)
	defer rl.Stop()

	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/votacoes", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("first status=%d", rr.Code)
	}

	*clock = clock.Add(15 * time.Second)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/votacoes", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "45" {
		t.Fatalf("Retry-After=%q", got)
	}
}
