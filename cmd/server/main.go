package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baxromumarov/roster-scraper/internal/api"
	"github.com/baxromumarov/roster-scraper/internal/config"
	"github.com/baxromumarov/roster-scraper/internal/core"
	"github.com/baxromumarov/roster-scraper/internal/discovery"
	"github.com/baxromumarov/roster-scraper/internal/httpx"
	"github.com/baxromumarov/roster-scraper/internal/scraper"
	"github.com/baxromumarov/roster-scraper/internal/sink"
	"github.com/baxromumarov/roster-scraper/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	dbStore, err := store.NewStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to store", "error", err)
		os.Exit(1)
	}
	defer dbStore.Close()

	if err := dbStore.RunMigrations(""); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	fetcher, err := httpx.NewFetcher(cfg.Scrape.Fetcher, cfg.Scrape.UserAgent, cfg.Scrape.RequestDelay, cfg.Scrape.RequestTimeout)
	if err != nil {
		slog.Error("failed to build fetcher", "error", err)
		os.Exit(1)
	}

	opts := scraper.Options{Origin: cfg.Scrape.Origin, GamePath: cfg.Scrape.GamePath}
	if len(cfg.Scrape.StatusTokens) > 0 {
		opts.StatusRule = &scraper.StatusRule{Tokens: cfg.Scrape.StatusTokens}
	}

	dbSink := sink.NewStoreRecordSink(dbStore)
	enrichment := core.NewEnrichmentService(fetcher, scraper.NewProfileExtractor(opts), dbSink, dbSink)
	harvester := discovery.NewHarvester(fetcher, discovery.ListingsOrDefault(cfg.Listings), discovery.Options{
		Origin:      cfg.Scrape.Origin,
		GamePath:    cfg.Scrape.GamePath,
		Concurrency: cfg.Scrape.ListingConcurrency,
	})
	pipeline := core.NewPipeline(harvester, enrichment, dbSink, dbStore)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := core.NewSchedulerService(pipeline, dbStore, cfg.Schedule.Interval, cfg.Schedule.FilteredRetention)
	scheduler.Start(ctx)

	srv := api.NewServer(dbStore, scheduler)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	slog.Info("starting server", "port", cfg.Port, "fetcher", cfg.Scrape.Fetcher)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
