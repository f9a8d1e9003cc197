package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/rickgao/tradergrail/internal/analyst"
	"github.com/rickgao/tradergrail/internal/auth"
	"github.com/rickgao/tradergrail/internal/broker"
	"github.com/rickgao/tradergrail/internal/cache"
	"github.com/rickgao/tradergrail/internal/config"
	"github.com/rickgao/tradergrail/internal/database"
	"github.com/rickgao/tradergrail/internal/identity"
	"github.com/rickgao/tradergrail/internal/marketsync"
	"github.com/rickgao/tradergrail/internal/marketview"
	"github.com/rickgao/tradergrail/internal/server"
	"github.com/rickgao/tradergrail/internal/store"
	"github.com/rickgao/tradergrail/internal/trading"
	"github.com/rickgao/tradergrail/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/dashboard.local.yaml", "path to config file")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before the config")
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

	level, _ := config.ParseLogLevel(cfg.Log.Level)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("starting dashboard",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"instance_id", cfg.Instance.ID,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("connecting to database",
		"host", cfg.Database.Postgres.Host,
		"port", cfg.Database.Postgres.Port,
		"database", cfg.Database.Postgres.Name,
	)
	pool, err := database.Connect(ctx, cfg.Database.Postgres)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			logger.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		logger.Info("schema applied")
	}

	st := store.New(pool, logger)

	var rdb redis.UniversalClient
	if cfg.Cache.Addr != "" {
		rdb = cache.NewClient(cfg.Cache)
		defer rdb.Close()
		logger.Info("quote cache enabled", "addr", cfg.Cache.Addr, "ttl", cfg.Cache.TTL)
	}
	quotes := cache.NewQuotes(st, rdb, cfg.Cache.TTL, logger)

	marketData := broker.NewMarketData(cfg.Broker, logger)
	tradingAPI := broker.NewTrading(cfg.Broker, logger)

	orchestrator := marketsync.New(marketsync.Config{
		Concurrency:   cfg.Sync.Concurrency,
		FetchTimeout:  cfg.Sync.FetchTimeout,
		BackfillBars:  cfg.Sync.BackfillBars,
		BarsTimeframe: cfg.Sync.BarsTimeframe,
		BarsLimit:     cfg.Sync.BarsLimit,
	}, quotes, marketData, logger, marketsync.WithBackfill(marketData, st))

	deps := server.Deps{
		Sync: orchestrator,
		View: marketview.New(quotes, st, cfg.View, logger),
		Desk: trading.NewDesk(tradingAPI, st, logger),
		Health: &server.Health{
			Database:    st,
			Clock:       tradingAPI,
			BrokerKeyID: cfg.Broker.KeyID,
			AIKey:       cfg.AI.APIKey,
			AuthURL:     cfg.Auth.ProviderURL,
		},
	}
	if quotes.Enabled() {
		deps.Health.Cache = quotes
	}

	if auth.Configured(cfg.AI.APIKey) {
		client, err := analyst.NewClient(ctx, cfg.AI)
		if err != nil {
			logger.Error("failed to create AI client", "error", err)
			os.Exit(1)
		}
		deps.Analyst = analyst.New(client, st, cfg.AI, logger)
		logger.Info("AI analyst enabled", "model", cfg.AI.Model)
	} else {
		logger.Warn("AI API key not configured, analysis routes disabled")
	}

	var users auth.UserResolver
	if cfg.Auth.ProviderURL != "" {
		users = identity.NewClient(
			cfg.Auth.ProviderURL,
			cfg.Auth.ProviderAPIKey,
			identity.WithLogger(logger),
			identity.WithTimeout(cfg.Auth.Timeout),
			identity.WithRetries(*cfg.Auth.MaxRetries, config.DefaultAuthBackoff),
		)
	}
	deps.Auth = auth.NewAuthenticator(users, cfg.Auth.SchedulerToken)

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(cfg.Server, deps, logger)
	httpServer := srv.HTTPServer()

	go func() {
		logger.Info("http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "error", err)
	}

	logger.Info("dashboard stopped")
}
