package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/prairielimo/lms_backend/internal/core/services"
	"github.com/prairielimo/lms_backend/internal/dto"
	"github.com/prairielimo/lms_backend/internal/middleware"
	"github.com/prairielimo/lms_backend/internal/platform/config"
	"github.com/prairielimo/lms_backend/internal/repositories/database/pgsql"
	"github.com/prairielimo/lms_backend/pkg/database"
)

// reconcile runs the matching passes once from the command line and prints
// the summary as JSON. Intended for cron and for dry inspection with
// -summary-only.
func main() {
	summaryOnly := flag.Bool("summary-only", false, "print the current standing without running any pass")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := middleware.WithLogger(context.Background(), logger)

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()

	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer := services.NewServiceContainer(repos, cfg)

	var failed bool
	var summary *dto.ReconciliationSummaryResponse
	if *summaryOnly {
		s, err := serviceContainer.Reconciliation.Summary(ctx)
		if err != nil {
			logger.Error("Failed to compute summary", slog.String("error", err.Error()))
			os.Exit(1)
		}
		resp := dto.ToReconciliationSummaryResponse(s)
		summary = &resp
	} else {
		s, err := serviceContainer.Reconciliation.Run(ctx)
		if err != nil {
			logger.Error("Reconciliation run failed", slog.String("error", err.Error()))
			failed = true
		}
		if s != nil {
			resp := dto.ToReconciliationSummaryResponse(s)
			summary = &resp
		}
	}

	if summary != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			logger.Error("Failed to encode summary", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	if failed {
		os.Exit(1)
	}
}
