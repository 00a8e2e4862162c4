// Command deputados-report prints a deputy's yearly expense dashboard,
// searches deputies by name or lists recent votes, straight from the
// open-data API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"deputados/internal/camara"
	"deputados/internal/cli"
	"deputados/internal/config"
	"deputados/internal/expenses"
	"deputados/internal/log"
	"deputados/internal/report"
)

func main() {
	id := flag.Int("id", 0, "deputy id whose expenses are reported")
	year := flag.Int("ano", time.Now().Year(), "year of the report")
	search := flag.String("busca", "", "search deputies by name instead of reporting")
	votes := flag.Bool("votacoes", false, "list recent votes instead of reporting")
	flag.Parse()

	cli.LoadEnvFile()
	cfg := config.Load()
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	logger := cli.SetupLogger(level).WithComponent(log.ComponentReport)

	if !*votes && *search == "" && *id <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	client, err := camara.New(cfg.CamaraAPIURL, cfg.UpstreamTimeout, camara.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	ctx, stop := cli.NotifyContext(context.Background())
	switch {
	case *votes:
		err = listVotes(ctx, client)
	case *search != "":
		err = searchDeputies(ctx, client, *search)
	default:
		err = run(ctx, client, cfg, logger, *id, *year)
	}
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func listVotes(ctx context.Context, client *camara.Client) error {
	votes, err := client.ListVotes(ctx)
	if err != nil {
		return fmt.Errorf("list votes: %w", err)
	}
	report.Votes(os.Stdout, votes)
	return nil
}

func searchDeputies(ctx context.Context, client *camara.Client, name string) error {
	deputies, err := client.SearchDeputies(ctx, name)
	if err != nil {
		return fmt.Errorf("search deputies: %w", err)
	}
	report.Deputies(os.Stdout, deputies)
	return nil
}

func run(ctx context.Context, client *camara.Client, cfg *config.Config, logger *log.Logger, id, year int) error {
	fetcher := expenses.NewFetcher(client,
		expenses.WithConcurrency(cfg.FetchConcurrency),
		expenses.WithLogger(logger))
	if year > fetcher.Now().Year() {
		return fmt.Errorf("year %d is in the future", year)
	}

	deputy, err := client.GetDeputy(ctx, id)
	if err != nil {
		return fmt.Errorf("get deputy %d: %w", id, err)
	}
	report.Deputy(os.Stdout, deputy)

	result := fetcher.FetchYear(ctx, id, year)
	if result.AllFailed() {
		return fmt.Errorf("no month of %d could be fetched for deputy %d", year, id)
	}
	report.Summary(os.Stdout, expenses.Summarize(result))
	return nil
}
