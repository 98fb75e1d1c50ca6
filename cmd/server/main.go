// Command server exposes threshold studies over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"threshold-lab/internal/api"
	"threshold-lab/internal/app"
	"threshold-lab/internal/config"
	"threshold-lab/internal/logging"
	"threshold-lab/internal/observability"
	"threshold-lab/internal/pipeline"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	loadFixtures := flag.Bool("fixtures", false, "Load built-in fixture bars into the bar store")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics("")
	a, err := app.New(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Fatal("initialize application", zap.Error(err))
	}
	defer a.Close()

	if *loadFixtures {
		if _, err := pipeline.LoadFixtures(ctx, a.Stores.Bars); err != nil {
			logger.Fatal("load fixtures", zap.Error(err))
		}
		logger.Info("fixture bars loaded")
	}

	checks := make(map[string]api.HealthCheck, len(a.Checks))
	for name, check := range a.Checks {
		checks[name] = check
	}

	gin.SetMode(cfg.Server.Mode)
	router := api.NewRouter(api.Options{
		Study:       a.Study,
		NewRunner:   a.NewRunner,
		RunStore:    a.Stores.Runs,
		LedgerStore: a.Stores.Ledger,
		EquityStore: a.Stores.Equity,
		Checks:      checks,
		Metrics:     metrics,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}
