// Command marketsync runs one sync pass against the tracked tickers and
// prints the report as JSON. It exits non-zero when the pass could not run
// at all or when every attempted ticker failed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/tradergrail/internal/broker"
	"github.com/rickgao/tradergrail/internal/cache"
	"github.com/rickgao/tradergrail/internal/config"
	"github.com/rickgao/tradergrail/internal/database"
	"github.com/rickgao/tradergrail/internal/marketsync"
	"github.com/rickgao/tradergrail/internal/model"
	"github.com/rickgao/tradergrail/internal/store"
	"github.com/rickgao/tradergrail/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/dashboard.local.yaml", "path to config file")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before the config")
	backfill := flag.Bool("backfill", false, "also backfill historical bars")
	flag.Parse()

	if err := config.LoadEnvFiles(*envFile); err != nil {
		slog.Error("failed to load env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Logs go to stderr so stdout carries only the report.
	level, _ := config.ParseLogLevel(cfg.Log.Level)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("starting marketsync", "version", version.Version, "commit", version.Commit)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database.Postgres)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	st := store.New(pool, logger)

	var rdb redis.UniversalClient
	if cfg.Cache.Addr != "" {
		rdb = cache.NewClient(cfg.Cache)
		defer rdb.Close()
	}
	quotes := cache.NewQuotes(st, rdb, cfg.Cache.TTL, logger)

	marketData := broker.NewMarketData(cfg.Broker, logger)
	orchestrator := marketsync.New(marketsync.Config{
		Concurrency:   cfg.Sync.Concurrency,
		FetchTimeout:  cfg.Sync.FetchTimeout,
		BackfillBars:  cfg.Sync.BackfillBars || *backfill,
		BarsTimeframe: cfg.Sync.BarsTimeframe,
		BarsLimit:     cfg.Sync.BarsLimit,
	}, quotes, marketData, logger, marketsync.WithBackfill(marketData, st))

	report, err := orchestrator.Run(ctx)
	if err != nil {
		logger.Error("sync run failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("encode report", "error", err)
		os.Exit(1)
	}

	if allFailed(report) {
		os.Exit(2)
	}
}

func allFailed(r model.SyncReport) bool {
	return r.FailedCount > 0 && r.UpdatedCount == 0 && r.SkippedCount == 0
}
