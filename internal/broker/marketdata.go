package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/rickgao/tradergrail/internal/config"
	"github.com/rickgao/tradergrail/internal/model"
)

// marketDataAPI is the subset of *marketdata.Client used here.
type marketDataAPI interface {
	GetSnapshot(symbol string, req marketdata.GetSnapshotRequest) (*marketdata.Snapshot, error)
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// MarketData fetches quotes and bars from the Alpaca data API.
type MarketData struct {
	api    marketDataAPI
	feed   marketdata.Feed
	logger *slog.Logger
	now    func() time.Time
}

// NewMarketData creates a MarketData adapter from broker config.
func NewMarketData(cfg config.BrokerConfig, logger *slog.Logger) *MarketData {
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    cfg.KeyID,
		APISecret: cfg.SecretKey,
		BaseURL:   cfg.DataURL,
	})
	return newMarketData(client, marketdata.Feed(cfg.Feed), logger)
}

func newMarketData(api marketDataAPI, feed marketdata.Feed, logger *slog.Logger) *MarketData {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketData{
		api:    api,
		feed:   feed,
		logger: logger,
		now:    time.Now,
	}
}

// FetchQuote returns the normalized latest quote for symbol. It returns
// (nil, nil) when the provider has no tradable quote.
func (m *MarketData) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	snap, err := callWithContext(ctx, func() (*marketdata.Snapshot, error) {
		return m.api.GetSnapshot(symbol, marketdata.GetSnapshotRequest{Feed: m.feed})
	})
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", symbol, err)
	}

	q := normalizeSnapshot(symbol, snap)
	if q == nil {
		m.logger.Debug("no tradable quote", "symbol", symbol)
	}
	return q, nil
}

// normalizeSnapshot maps the provider snapshot onto model.Quote.
func normalizeSnapshot(symbol string, s *marketdata.Snapshot) *model.Quote {
	if s == nil {
		return nil
	}

	var (
		price float64
		ts    time.Time
	)
	switch {
	case s.LatestTrade != nil && s.LatestTrade.Price > 0:
		price = s.LatestTrade.Price
		ts = s.LatestTrade.Timestamp
	case s.LatestQuote != nil && s.LatestQuote.AskPrice > 0:
		price = s.LatestQuote.AskPrice
		ts = s.LatestQuote.Timestamp
	default:
		return nil
	}

	q := &model.Quote{
		Symbol:    symbol,
		Price:     price,
		Timestamp: ts.UTC(),
	}

	if s.LatestQuote != nil {
		q.Bid = s.LatestQuote.BidPrice
		q.Ask = s.LatestQuote.AskPrice
		if q.Bid > 0 && q.Ask > 0 {
			q.Spread = q.Ask - q.Bid
		}
	}

	prevClose := price
	if s.PrevDailyBar != nil && s.PrevDailyBar.Close > 0 {
		prevClose = s.PrevDailyBar.Close
	}
	q.Change = price - prevClose
	q.ChangePercent = q.Change / prevClose * 100

	if s.DailyBar != nil {
		q.Volume = float64(s.DailyBar.Volume)
	}

	if raw, err := json.Marshal(s); err == nil {
		q.Raw = raw
	}

	return q
}

// FetchBars returns up to limit of the most recent bars for symbol, ascending.
func (m *MarketData) FetchBars(ctx context.Context, symbol, timeframe string, limit int) ([]model.HistoricalBar, error) {
	tf, step, err := parseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}

	end := m.now()
	lookback := 7 * 24 * time.Hour
	if need := 2 * time.Duration(limit) * step; need > lookback {
		lookback = need
	}

	bars, err := callWithContext(ctx, func() ([]marketdata.Bar, error) {
		return m.api.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: tf,
			Start:     end.Add(-lookback),
			End:       end,
			Feed:      m.feed,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("get bars %s: %w", symbol, err)
	}

	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}

	out := make([]model.HistoricalBar, 0, len(bars))
	for _, b := range bars {
		out = append(out, model.HistoricalBar{
			Symbol:    symbol,
			Timeframe: timeframe,
			Timestamp: b.Timestamp.UTC(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    float64(b.Volume),
			Source:    model.SourceAlpaca,
		})
	}
	return out, nil
}

// parseTimeframe maps a timeframe name to the SDK value and its bucket width.
func parseTimeframe(name string) (marketdata.TimeFrame, time.Duration, error) {
	switch name {
	case "1Min":
		return marketdata.OneMin, time.Minute, nil
	case "5Min":
		return marketdata.NewTimeFrame(5, marketdata.Min), 5 * time.Minute, nil
	case "15Min":
		return marketdata.NewTimeFrame(15, marketdata.Min), 15 * time.Minute, nil
	case "1Hour":
		return marketdata.OneHour, time.Hour, nil
	case "1Day":
		return marketdata.OneDay, 24 * time.Hour, nil
	}
	return marketdata.TimeFrame{}, 0, fmt.Errorf("unsupported timeframe %q", name)
}
