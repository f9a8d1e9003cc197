// Package marketview serves the cached market view for one symbol.
//
// It reads only from the snapshot and bar stores and never calls the
// brokerage. When no bars are cached it synthesizes a flat hourly series
// from the latest quote so the chart always has something to render.
package marketview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rickgao/tradergrail/internal/config"
	"github.com/rickgao/tradergrail/internal/model"
	"github.com/rickgao/tradergrail/internal/store"
)

// MaxLimit caps the number of bars one request may ask for.
const MaxLimit = config.MaxViewLimit

// ErrNotAvailable is returned when no snapshot has been cached for a symbol.
var ErrNotAvailable = errors.New("no market data found")

// InvalidRequestError reports a bad symbol, timeframe or limit.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string {
	return e.Message
}

// SnapshotReader reads the latest snapshot for a symbol.
type SnapshotReader interface {
	LatestSnapshot(ctx context.Context, symbol, dataType string) (model.Snapshot, error)
}

// BarReader reads recent bars in ascending time order.
type BarReader interface {
	RecentBars(ctx context.Context, symbol, timeframe string, limit int) ([]model.HistoricalBar, error)
}

// Quote is the quote section of a View.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Bid           float64   `json:"bid"`
	Ask           float64   `json:"ask"`
	Spread        float64   `json:"spread"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Volume        float64   `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
}

// Bar is one chart point.
type Bar struct {
	Time      string    `json:"time"` // HH:MM label in UTC
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Synthetic bool      `json:"synthetic,omitempty"`
}

// View is the read-surface response for one symbol.
type View struct {
	Symbol                 string    `json:"symbol"`
	Timeframe              string    `json:"timeframe"`
	Quote                  Quote     `json:"quote"`
	HistoricalBars         []Bar     `json:"historicalBars"`
	Available              bool      `json:"available"`
	Cached                 bool      `json:"cached"`
	LastUpdate             time.Time `json:"lastUpdate"`
	RefreshIntervalSeconds int       `json:"refreshIntervalSeconds"`
}

// Service builds views from the snapshot store.
type Service struct {
	snapshots SnapshotReader
	bars      BarReader
	cfg       config.ViewConfig
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Service.
func New(snapshots SnapshotReader, bars BarReader, cfg config.ViewConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultTimeframe == "" {
		cfg.DefaultTimeframe = config.DefaultViewTimeframe
	}
	if cfg.DefaultLimit < 1 {
		cfg.DefaultLimit = config.DefaultViewLimit
	}
	return &Service{
		snapshots: snapshots,
		bars:      bars,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Request is a validated view request.
type Request struct {
	Symbol    string
	Timeframe string
	Limit     int
}

// NormalizeRequest upper-cases the symbol, applies defaults and validates.
// A zero limit or empty timeframe means "use the default".
func (s *Service) NormalizeRequest(symbol, timeframe string, limit int) (Request, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Request{}, &InvalidRequestError{Message: "Symbol parameter is required"}
	}
	if timeframe == "" {
		timeframe = s.cfg.DefaultTimeframe
	}
	if !config.ValidTimeframe(timeframe) {
		return Request{}, &InvalidRequestError{Message: fmt.Sprintf("Unsupported timeframe %q", timeframe)}
	}
	if limit == 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return Request{}, &InvalidRequestError{Message: fmt.Sprintf("Limit must be between 1 and %d", MaxLimit)}
	}
	return Request{Symbol: symbol, Timeframe: timeframe, Limit: limit}, nil
}

// LatestView returns the latest quote and bar series for symbol.
// It returns ErrNotAvailable before the first successful sync of symbol.
func (s *Service) LatestView(ctx context.Context, symbol, timeframe string, limit int) (View, error) {
	req, err := s.NormalizeRequest(symbol, timeframe, limit)
	if err != nil {
		return View{}, err
	}

	snap, err := s.snapshots.LatestSnapshot(ctx, req.Symbol, model.DataTypeQuote)
	if errors.Is(err, store.ErrNotFound) {
		return View{}, ErrNotAvailable
	}
	if err != nil {
		return View{}, fmt.Errorf("latest snapshot %s: %w", req.Symbol, err)
	}

	bars, err := s.bars.RecentBars(ctx, req.Symbol, req.Timeframe, req.Limit)
	if err != nil {
		s.logger.Warn("bar query failed, using synthetic bars", "symbol", req.Symbol, "error", err)
		bars = nil
	}

	var series []Bar
	if len(bars) > 0 {
		series = toBars(bars)
	} else {
		series = SyntheticBars(snap.Price, req.Limit, s.now())
	}

	return View{
		Symbol:    req.Symbol,
		Timeframe: req.Timeframe,
		Quote: Quote{
			Symbol:        snap.Symbol,
			Price:         snap.Price,
			Bid:           snap.Bid,
			Ask:           snap.Ask,
			Spread:        snap.Spread,
			Change:        snap.Change,
			ChangePercent: snap.ChangePercent,
			Volume:        snap.Volume,
			Timestamp:     snap.Timestamp,
		},
		HistoricalBars:         series,
		Available:              true,
		Cached:                 true,
		LastUpdate:             snap.FetchedAt,
		RefreshIntervalSeconds: int(s.cfg.ClientRefreshInterval / time.Second),
	}, nil
}

// SyntheticBars returns n flat bars at price, one per hour, oldest first,
// the last one at now.
func SyntheticBars(price float64, n int, now time.Time) []Bar {
	out := make([]Bar, 0, n)
	for i := 0; i < n; i++ {
		ts := now.Add(-time.Duration(n-1-i) * time.Hour).UTC()
		out = append(out, Bar{
			Time:      ts.Format("15:04"),
			Timestamp: ts,
			Price:     price,
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    0,
			Synthetic: true,
		})
	}
	return out
}

func toBars(bars []model.HistoricalBar) []Bar {
	out := make([]Bar, 0, len(bars))
	for _, b := range bars {
		ts := b.Timestamp.UTC()
		out = append(out, Bar{
			Time:      ts.Format("15:04"),
			Timestamp: ts,
			Price:     b.Close,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	return out
}
