package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/tradergrail/internal/model"
)

// RecentBars returns the most recent limit bars for (symbol, timeframe),
// ascending by timestamp.
func (s *Store) RecentBars(ctx context.Context, symbol, timeframe string, limit int) ([]model.HistoricalBar, error) {
	rows, err := s.db.Query(ctx, `
		SELECT symbol, timeframe, timestamp, open, high, low, close, volume, source
		FROM market_bars
		WHERE symbol = $1 AND timeframe = $2
		ORDER BY timestamp DESC
		LIMIT $3
	`, symbol, timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("query bars %s/%s: %w", symbol, timeframe, err)
	}
	defer rows.Close()

	var bars []model.HistoricalBar
	for rows.Next() {
		var b model.HistoricalBar
		if err := rows.Scan(&b.Symbol, &b.Timeframe, &b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Source); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bars: %w", err)
	}

	reverseBars(bars)
	return bars, nil
}

// InsertBars inserts bars using pgx.Batch with ON CONFLICT DO NOTHING and
// returns how many rows were new.
func (s *Store) InsertBars(ctx context.Context, bars []model.HistoricalBar) (inserted int, err error) {
	if len(bars) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(`
			INSERT INTO market_bars (symbol, timeframe, timestamp, open, high, low, close, volume, source)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (symbol, timeframe, timestamp) DO NOTHING
		`, b.Symbol, b.Timeframe, b.Timestamp, b.Open, b.High, b.Low, b.Close, b.Volume, b.Source)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for range bars {
		ct, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert bar: %w", err)
		}
		inserted += int(ct.RowsAffected())
	}

	return inserted, nil
}

// reverseBars flips a newest-first slice into display order.
func reverseBars(bars []model.HistoricalBar) {
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
}
