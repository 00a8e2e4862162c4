// Package http serves the deputies dashboard API: passthrough endpoints over
// the Câmara open-data API plus server-side dashboard views.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"

	"deputados/internal/cache"
	"deputados/internal/camara"
	"deputados/internal/expenses"
	"deputados/internal/log"
	"deputados/internal/middleware/ratelimit"
	"deputados/internal/middleware/security"
	"deputados/internal/middleware/trace"
)

// Options configures NewServer. Zero values fall back to the defaults used
// by config.Load.
type Options struct {
	Addr        string
	CORSOrigins []string
	RateLimit   int
	CacheTTL    time.Duration
	CacheSize   int
	YearsBack   int
	Logger      *log.Logger

	// Listings overrides the in-memory listing memo, e.g. with a shared
	// cache.RedisCache.
	Listings cache.Cache[[]byte]
}

type Server struct {
	http.Server
	source  camara.Source
	fetcher *expenses.Fetcher
	logger  *log.Logger

	listings     cache.Cache[[]byte]
	cacheManager *cache.Manager

	rateLimiter     *ratelimit.Limiter
	detector        *security.Detector
	traceMiddleware *trace.Middleware

	yearsBack    int
	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware around source. fetcher may be nil,
// in which case one with default concurrency is built over source.
func NewServer(opts Options, source camara.Source, fetcher *expenses.Fetcher) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.Listings == nil {
		opts.Listings = cache.NewLRUCache[[]byte](opts.CacheSize, opts.CacheTTL)
	}
	if fetcher == nil {
		fetcher = expenses.NewFetcher(source, expenses.WithLogger(opts.Logger))
	}

	s := &Server{
		source:       source,
		fetcher:      fetcher,
		logger:       opts.Logger.WithComponent(log.ComponentHTTP),
		listings:     opts.Listings,
		cacheManager: cache.NewManager(opts.Logger),
		rateLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		detector:     security.NewDetector(opts.Logger),
		yearsBack:    opts.YearsBack,
		startedAt:    time.Now(),
	}
	s.traceMiddleware = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP)

	if cleaner, ok := s.listings.(cache.Cleaner); ok {
		s.cacheManager.Register(cleaner)
	}
	s.cacheManager.StartCleanup(opts.CacheTTL)

	mux := http.NewServeMux()
	mux.Handle("GET /api/deputados", s.api(s.handleSearchDeputies, opts.CacheTTL))
	mux.Handle("GET /api/deputados/{id}", s.api(s.handleDeputy, 0))
	mux.Handle("GET /api/deputados/{id}/despesas", s.api(s.handleExpenses, 0))
	mux.Handle("GET /api/deputados/{id}/dashboard", s.api(s.handleDashboard, 0))
	mux.Handle("GET /api/votacoes", s.api(s.handleVotes, opts.CacheTTL))
	mux.Handle("GET /api/anos", s.api(s.handleYears, 0))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders: []string{trace.HeaderRequestID, "Retry-After"},
		MaxAge:         600,
	})

	var handler http.Handler = mux
	handler = corsHandler.Handler(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// the dashboard waits on a whole year of upstream calls
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,

		MaxHeaderBytes: 1 << 16,
	}
	return s
}

func (s *Server) listingStats() cache.Stats {
	if r, ok := s.listings.(cache.StatsReporter); ok {
		return r.Stats()
	}
	return cache.Stats{}
}

// api applies the per-client rate limit and browser cache policy of the
// /api/ routes.
func (s *Server) api(h http.HandlerFunc, maxAge time.Duration) http.Handler {
	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)
	return limited(security.CacheControl(int(maxAge / time.Second))(h))
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	writeError(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

// Shutdown stops background sweeps and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
