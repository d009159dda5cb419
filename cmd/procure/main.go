package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Asclepia-Market/Procure/internal/allocator"
	"github.com/Asclepia-Market/Procure/internal/api"
	"github.com/Asclepia-Market/Procure/internal/config"
	"github.com/Asclepia-Market/Procure/internal/notify"
	"github.com/Asclepia-Market/Procure/internal/parser"
	"github.com/Asclepia-Market/Procure/internal/scoring"
	"github.com/Asclepia-Market/Procure/internal/store"
	"github.com/Asclepia-Market/Procure/internal/watch"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Event bus (optional)
	var notifier notify.Client
	if cfg.Notify.URL != "" {
		nc, err := notify.NewNATSClient(ctx, cfg.Notify.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to event bus, running without events", "error", err)
		} else {
			notifier = nc
			defer nc.Close()
			logger.Info("connected to event bus")
		}
	}

	// Document parser
	parserClient := parser.NewHTTPClient(cfg.Parser.URL)

	// Envelope allocator and bid scorer
	alloc := allocator.New(db, logger)
	scorer := scoring.NewScorer(logger)

	// Background watcher: review advancement and deadline sweeps
	watcher := watch.New(db, notifier, cfg, logger)
	watcher.Start(ctx)
	defer watcher.Stop()
	logger.Info("watcher started", "tick_interval", cfg.TickInterval())

	// API server
	router := api.NewRouter(db, notifier, parserClient, alloc, scorer, watcher, cfg, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsRouter := api.NewMetricsRouter()
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: metricsRouter,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}
