package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/tradergrail/internal/config"
	"github.com/rickgao/tradergrail/internal/model"
)

const keyPrefix = "tradergrail:quote:"

// Backend is the store the cache sits in front of.
type Backend interface {
	ActiveTickers(ctx context.Context) ([]model.Ticker, error)
	SaveFetch(ctx context.Context, snap model.Snapshot, fetchedAt time.Time) error
	RecordFailure(ctx context.Context, symbol string) error
	LatestSnapshot(ctx context.Context, symbol, dataType string) (model.Snapshot, error)
}

// setIfNewer stores ARGV[3] under KEYS[1] unless the cached entry is strictly
// newer. Entries order by quote timestamp (ARGV[1]) then fetch time (ARGV[2]),
// both unix millis, matching the snapshot store's latest-row rule.
var setIfNewer = redis.NewScript(`
local cur = redis.call('HMGET', KEYS[1], 'ts', 'fetched')
local ts, fetched = tonumber(ARGV[1]), tonumber(ARGV[2])
if cur[1] then
  local cts, cfetched = tonumber(cur[1]), tonumber(cur[2] or '0')
  if cts > ts or (cts == ts and cfetched > fetched) then
    return 0
  end
end
redis.call('HSET', KEYS[1], 'ts', ARGV[1], 'fetched', ARGV[2], 'data', ARGV[3])
if tonumber(ARGV[4]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[4])
end
return 1
`)

// Quotes is a Backend decorated with a Redis latest-quote cache.
type Quotes struct {
	Backend
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewClient creates a Redis client from config. It returns nil when no
// address is configured.
func NewClient(cfg config.CacheConfig) redis.UniversalClient {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewQuotes wraps backend with rdb. A nil rdb disables caching and every
// call goes straight to backend.
func NewQuotes(backend Backend, rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *Quotes {
	if logger == nil {
		logger = slog.Default()
	}
	return &Quotes{Backend: backend, rdb: rdb, ttl: ttl, logger: logger}
}

// LatestSnapshot returns the cached quote snapshot for symbol, loading it
// from the backend on a miss.
func (q *Quotes) LatestSnapshot(ctx context.Context, symbol, dataType string) (model.Snapshot, error) {
	if q.rdb == nil || dataType != model.DataTypeQuote {
		return q.Backend.LatestSnapshot(ctx, symbol, dataType)
	}

	data, err := q.rdb.HGet(ctx, key(symbol), "data").Bytes()
	switch {
	case err == nil:
		var snap model.Snapshot
		if err := json.Unmarshal(data, &snap); err == nil {
			return snap, nil
		}
		q.logger.Warn("discarding corrupt cache entry", "symbol", symbol)
	case !errors.Is(err, redis.Nil):
		q.logger.Warn("cache read failed", "symbol", symbol, "error", err)
	}

	snap, err := q.Backend.LatestSnapshot(ctx, symbol, dataType)
	if err != nil {
		return snap, err
	}
	q.put(ctx, snap)
	return snap, nil
}

// SaveFetch persists through the backend, then refreshes the cache entry.
func (q *Quotes) SaveFetch(ctx context.Context, snap model.Snapshot, fetchedAt time.Time) error {
	if err := q.Backend.SaveFetch(ctx, snap, fetchedAt); err != nil {
		return err
	}
	if q.rdb != nil && snap.DataType == model.DataTypeQuote {
		if snap.FetchedAt.IsZero() {
			snap.FetchedAt = fetchedAt
		}
		q.put(ctx, snap)
	}
	return nil
}

// Ping checks Redis connectivity. A disabled cache is always healthy.
func (q *Quotes) Ping(ctx context.Context) error {
	if q.rdb == nil {
		return nil
	}
	return q.rdb.Ping(ctx).Err()
}

// Enabled reports whether a Redis client is configured.
func (q *Quotes) Enabled() bool {
	return q.rdb != nil
}

func (q *Quotes) put(ctx context.Context, snap model.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		q.logger.Warn("encode cache entry", "symbol", snap.Symbol, "error", err)
		return
	}
	err = setIfNewer.Run(ctx, q.rdb,
		[]string{key(snap.Symbol)},
		snap.Timestamp.UnixMilli(), snap.FetchedAt.UnixMilli(), data, q.ttl.Milliseconds(),
	).Err()
	if err != nil {
		q.logger.Warn("cache write failed", "symbol", snap.Symbol, "error", fmt.Errorf("set %s: %w", key(snap.Symbol), err))
	}
}

func key(symbol string) string {
	return keyPrefix + symbol
}
