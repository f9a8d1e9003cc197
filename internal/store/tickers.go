package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/tradergrail/internal/model"
)

// ActiveTickers returns every ticker with is_active = true, ordered by symbol.
func (s *Store) ActiveTickers(ctx context.Context) ([]model.Ticker, error) {
	rows, err := s.db.Query(ctx, `
		SELECT symbol, is_active, refresh_interval, last_fetched_at, fetch_count, error_count
		FROM market_tickers
		WHERE is_active = TRUE
		ORDER BY symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("query active tickers: %w", err)
	}
	defer rows.Close()

	var tickers []model.Ticker
	for rows.Next() {
		var t model.Ticker
		if err := rows.Scan(&t.Symbol, &t.IsActive, &t.RefreshIntervalSeconds, &t.LastFetchedAt, &t.FetchCount, &t.ErrorCount); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickers: %w", err)
	}
	return tickers, nil
}

// SaveFetch records a successful fetch: the snapshot insert and the registry
// bookkeeping (last_fetched_at, fetch_count) commit together.
func (s *Store) SaveFetch(ctx context.Context, snap model.Snapshot, fetchedAt time.Time) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := insertSnapshot(ctx, tx, snap); err != nil {
			return err
		}

		ct, err := tx.Exec(ctx, `
			UPDATE market_tickers
			SET last_fetched_at = $2, fetch_count = fetch_count + 1
			WHERE symbol = $1
		`, snap.Symbol, fetchedAt)
		if err != nil {
			return fmt.Errorf("update ticker: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("update ticker %s: %w", snap.Symbol, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save fetch %s: %w", snap.Symbol, err)
	}
	return nil
}

// RecordFailure increments error_count for a failed fetch attempt.
func (s *Store) RecordFailure(ctx context.Context, symbol string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE market_tickers SET error_count = error_count + 1 WHERE symbol = $1
	`, symbol)
	if err != nil {
		return fmt.Errorf("record failure %s: %w", symbol, err)
	}
	return nil
}
