package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"deputados/internal/cache"
	"deputados/internal/camara"
	"deputados/internal/cli"
	"deputados/internal/config"
	"deputados/internal/expenses"
	apphttp "deputados/internal/http"
	"deputados/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	os.Exit(run(logger, cfg))
}

// run serves until a signal arrives or the listener fails and returns the
// process exit code. Deferred cleanup runs before main exits.
func run(logger *log.Logger, cfg *config.Config) int {
	client, err := camara.New(cfg.CamaraAPIURL, cfg.UpstreamTimeout, camara.WithLogger(logger))
	if err != nil {
		logger.Error("Failed to initialize Câmara client", log.FieldError, err, log.FieldOperation, log.OpStartup)
		return 1
	}
	fetcher := expenses.NewFetcher(client,
		expenses.WithConcurrency(cfg.FetchConcurrency),
		expenses.WithLogger(logger))

	var listings cache.Cache[[]byte]
	if cfg.RedisURL != "" {
		redisClient, err := cache.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Warn("Failed to initialize Redis, keeping listings in memory", log.FieldError, err)
		} else {
			defer redisClient.Close()
			listings = cache.NewRedisCache(redisClient, cfg.CacheTTL, logger)
		}
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:        ":" + cfg.Port,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimit,
		CacheTTL:    cfg.CacheTTL,
		CacheSize:   cfg.CacheSize,
		YearsBack:   cfg.YearsBack,
		Logger:      logger,
		Listings:    listings,
	}, client, fetcher)

	ctx, stop := cli.NotifyContext(context.Background())
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting deputados server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			"upstream", cfg.CamaraAPIURL,
			"fetch_concurrency", cfg.FetchConcurrency,
			"shared_cache", listings != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	code := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			code = 1
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	cli.Shutdown(logger, 30*time.Second, srv.Shutdown)
	return code
}
