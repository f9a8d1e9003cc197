package marketsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/tradergrail/internal/model"
)

// TickerRegistry reads the registry and records fetch outcomes.
type TickerRegistry interface {
	ActiveTickers(ctx context.Context) ([]model.Ticker, error)
	// SaveFetch appends the snapshot and marks the ticker fetched at fetchedAt.
	SaveFetch(ctx context.Context, snap model.Snapshot, fetchedAt time.Time) error
	// RecordFailure bumps the ticker's error counter.
	RecordFailure(ctx context.Context, symbol string) error
}

// QuoteFetcher returns the current quote for a symbol, or nil when the
// provider has none.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
}

// BarSource fetches recent historical bars.
type BarSource interface {
	FetchBars(ctx context.Context, symbol, timeframe string, limit int) ([]model.HistoricalBar, error)
}

// BarWriter persists historical bars.
type BarWriter interface {
	InsertBars(ctx context.Context, bars []model.HistoricalBar) (int, error)
}

// Config holds orchestrator configuration.
type Config struct {
	Concurrency   int           // Max tickers in flight (default: 4)
	FetchTimeout  time.Duration // Per-fetch timeout (default: 10s)
	BackfillBars  bool
	BarsTimeframe string
	BarsLimit     int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:   4,
		FetchTimeout:  10 * time.Second,
		BarsTimeframe: "1Hour",
		BarsLimit:     24,
	}
}

// Orchestrator runs sync passes.
type Orchestrator struct {
	cfg      Config
	registry TickerRegistry
	fetcher  QuoteFetcher
	bars     BarSource
	barStore BarWriter
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithBackfill enables bar backfill after each successful quote fetch.
// It only takes effect when Config.BackfillBars is set.
func WithBackfill(src BarSource, dst BarWriter) Option {
	return func(o *Orchestrator) {
		o.bars = src
		o.barStore = dst
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an Orchestrator.
func New(cfg Config, registry TickerRegistry, fetcher QuoteFetcher, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Concurrency < 1 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.BarsTimeframe == "" {
		cfg.BarsTimeframe = def.BarsTimeframe
	}
	if cfg.BarsLimit < 1 {
		cfg.BarsLimit = def.BarsLimit
	}

	o := &Orchestrator{
		cfg:      cfg,
		registry: registry,
		fetcher:  fetcher,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run performs one sync pass. The returned error is non-nil only when the
// registry could not be read; per-ticker failures are reported in the results.
func (o *Orchestrator) Run(ctx context.Context) (model.SyncReport, error) {
	report := model.SyncReport{
		RunID:     uuid.New(),
		StartedAt: o.now(),
	}
	logger := o.logger.With("run_id", report.RunID)

	tickers, err := o.registry.ActiveTickers(ctx)
	if err != nil {
		return report, fmt.Errorf("list active tickers: %w", err)
	}

	// Each goroutine writes only its own slot.
	results := make([]model.SyncResult, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)
	for i, t := range tickers {
		g.Go(func() error {
			results[i] = o.syncTicker(gctx, logger, t)
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	report.Results = results
	report.FinishedAt = o.now()
	report.Tally()

	logger.Info("sync run complete",
		"tickers", len(tickers),
		"updated", report.UpdatedCount,
		"failed", report.FailedCount,
		"skipped", report.SkippedCount,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)

	return report, nil
}

// syncTicker handles one ticker. It is the only writer for t.Symbol in a run.
func (o *Orchestrator) syncTicker(ctx context.Context, logger *slog.Logger, t model.Ticker) model.SyncResult {
	now := o.now()
	if !t.Due(now) {
		age, _ := t.Age(now)
		return model.Skipped(t.Symbol, fmt.Sprintf("refreshed %s ago, interval %ds", age.Round(time.Second), t.RefreshIntervalSeconds))
	}

	q, err := o.fetch(ctx, t.Symbol)
	if err != nil || q == nil {
		msg := "no quote available"
		if err != nil {
			msg = err.Error()
		}
		logger.Warn("failed to fetch quote", "symbol", t.Symbol, "error", msg)
		o.recordFailure(ctx, logger, t.Symbol)
		return model.Failed(t.Symbol, msg)
	}

	fetchedAt := o.now()
	snap := model.NewQuoteSnapshot(*q, model.SourceAlpaca, fetchedAt)
	if err := o.registry.SaveFetch(ctx, snap, fetchedAt); err != nil {
		logger.Error("failed to save snapshot", "symbol", t.Symbol, "error", err)
		o.recordFailure(ctx, logger, t.Symbol)
		return model.Failed(t.Symbol, fmt.Sprintf("save snapshot: %v", err))
	}

	if o.cfg.BackfillBars && o.bars != nil && o.barStore != nil {
		o.backfill(ctx, logger, t.Symbol)
	}

	return model.Succeeded(t.Symbol, q.Price, q.ChangePercent)
}

func (o *Orchestrator) fetch(ctx context.Context, symbol string) (*model.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout)
	defer cancel()
	return o.fetcher.FetchQuote(ctx, symbol)
}

func (o *Orchestrator) recordFailure(ctx context.Context, logger *slog.Logger, symbol string) {
	if err := o.registry.RecordFailure(ctx, symbol); err != nil {
		logger.Error("failed to record fetch failure", "symbol", symbol, "error", err)
	}
}

// backfill refreshes the bar cache. Failures are logged only.
func (o *Orchestrator) backfill(ctx context.Context, logger *slog.Logger, symbol string) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout)
	defer cancel()

	bars, err := o.bars.FetchBars(ctx, symbol, o.cfg.BarsTimeframe, o.cfg.BarsLimit)
	if err != nil {
		logger.Warn("failed to fetch bars", "symbol", symbol, "error", err)
		return
	}
	if len(bars) == 0 {
		return
	}

	n, err := o.barStore.InsertBars(ctx, bars)
	if err != nil {
		logger.Warn("failed to insert bars", "symbol", symbol, "error", err)
		return
	}
	logger.Debug("bars backfilled", "symbol", symbol, "fetched", len(bars), "inserted", n)
}
