package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/tradergrail/internal/model"
)

// InsertSnapshot appends a snapshot row and returns its id.
func (s *Store) InsertSnapshot(ctx context.Context, snap model.Snapshot) (int64, error) {
	return insertSnapshot(ctx, s.db, snap)
}

func insertSnapshot(ctx context.Context, q querier, snap model.Snapshot) (int64, error) {
	var raw []byte
	if len(snap.RawData) > 0 {
		raw = snap.RawData
	}

	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO market_snapshots (symbol, price, bid, ask, spread, change, change_percent, volume, timestamp, data_type, source, raw_data, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`, snap.Symbol, snap.Price, snap.Bid, snap.Ask, snap.Spread, snap.Change, snap.ChangePercent, snap.Volume,
		snap.Timestamp, snap.DataType, snap.Source, raw, snap.FetchedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	return id, nil
}

// LatestSnapshot returns the most recent snapshot for symbol and dataType, or
// ErrNotFound. Rows order by quote timestamp, then fetch time, then insertion.
func (s *Store) LatestSnapshot(ctx context.Context, symbol, dataType string) (model.Snapshot, error) {
	var (
		snap                                            model.Snapshot
		bid, ask, spread, change, changePercent, volume *float64
		raw                                             []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, symbol, price, bid, ask, spread, change, change_percent, volume, timestamp, data_type, source, raw_data, fetched_at
		FROM market_snapshots
		WHERE symbol = $1 AND data_type = $2
		ORDER BY timestamp DESC, fetched_at DESC, id DESC
		LIMIT 1
	`, symbol, dataType).Scan(
		&snap.ID, &snap.Symbol, &snap.Price, &bid, &ask, &spread, &change, &changePercent, &volume,
		&snap.Timestamp, &snap.DataType, &snap.Source, &raw, &snap.FetchedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("query latest snapshot %s: %w", symbol, err)
	}

	snap.Bid = deref(bid)
	snap.Ask = deref(ask)
	snap.Spread = deref(spread)
	snap.Change = deref(change)
	snap.ChangePercent = deref(changePercent)
	snap.Volume = deref(volume)
	snap.RawData = raw
	return snap, nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
