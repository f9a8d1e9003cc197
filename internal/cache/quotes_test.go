package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/tradergrail/internal/model"
	"github.com/rickgao/tradergrail/internal/store"
)

type fakeBackend struct {
	latest map[string]model.Snapshot
	reads  int
	saves  int
}

func (f *fakeBackend) ActiveTickers(ctx context.Context) ([]model.Ticker, error) { return nil, nil }
func (f *fakeBackend) RecordFailure(ctx context.Context, symbol string) error    { return nil }

// SaveFetch keeps the row the store would return: newest by timestamp then
// fetch time, and on a full tie the most recently inserted.
func (f *fakeBackend) SaveFetch(ctx context.Context, snap model.Snapshot, fetchedAt time.Time) error {
	f.saves++
	if cur, ok := f.latest[snap.Symbol]; !ok || !cur.NewerThan(snap) {
		f.latest[snap.Symbol] = snap
	}
	return nil
}

func (f *fakeBackend) LatestSnapshot(ctx context.Context, symbol, dataType string) (model.Snapshot, error) {
	f.reads++
	s, ok := f.latest[symbol]
	if !ok {
		return model.Snapshot{}, store.ErrNotFound
	}
	return s, nil
}

var t0 = time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

func snapAt(price float64, ts time.Time) model.Snapshot {
	return model.Snapshot{Symbol: "AAPL", Price: price, Timestamp: ts, DataType: model.DataTypeQuote, Source: model.SourceAlpaca, FetchedAt: ts}
}

func newTestQuotes(t *testing.T) (*Quotes, *fakeBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	be := &fakeBackend{latest: make(map[string]model.Snapshot)}
	return NewQuotes(be, rdb, time.Hour, nil), be, mr
}

func TestQuotes_ReadThrough(t *testing.T) {
	q, be, _ := newTestQuotes(t)
	be.latest["AAPL"] = snapAt(150.25, t0)
	ctx := context.Background()

	got, err := q.LatestSnapshot(ctx, "AAPL", model.DataTypeQuote)
	require.NoError(t, err)
	assert.Equal(t, 150.25, got.Price)
	assert.Equal(t, 1, be.reads)

	got, err = q.LatestSnapshot(ctx, "AAPL", model.DataTypeQuote)
	require.NoError(t, err)
	assert.Equal(t, 150.25, got.Price)
	assert.True(t, got.Timestamp.Equal(t0))
	assert.Equal(t, 1, be.reads, "second read served from redis")
}

func TestQuotes_MissPassesNotFound(t *testing.T) {
	q, _, _ := newTestQuotes(t)

	_, err := q.LatestSnapshot(context.Background(), "ZZZZ", model.DataTypeQuote)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestQuotes_SaveFetchKeepsNewest(t *testing.T) {
	q, be, _ := newTestQuotes(t)
	ctx := context.Background()

	require.NoError(t, q.SaveFetch(ctx, snapAt(151, t0.Add(time.Minute)), t0.Add(time.Minute)))
	// An overlapping run lands an older quote afterwards.
	require.NoError(t, q.SaveFetch(ctx, snapAt(150, t0), t0))
	assert.Equal(t, 2, be.saves)

	got, err := q.LatestSnapshot(ctx, "AAPL", model.DataTypeQuote)
	require.NoError(t, err)
	assert.Equal(t, float64(151), got.Price)
	assert.Zero(t, be.reads)
}

func TestQuotes_SameTimestampLaterFetchWins(t *testing.T) {
	q, be, _ := newTestQuotes(t)
	ctx := context.Background()

	first := snapAt(150.25, t0)
	first.Bid = 150.20
	first.FetchedAt = t0.Add(time.Minute)
	second := snapAt(150.25, t0)
	second.Bid = 149.00
	second.FetchedAt = t0.Add(2 * time.Hour)

	require.NoError(t, q.SaveFetch(ctx, first, first.FetchedAt))
	require.NoError(t, q.SaveFetch(ctx, second, second.FetchedAt))

	want, err := be.LatestSnapshot(ctx, "AAPL", model.DataTypeQuote)
	require.NoError(t, err)

	got, err := q.LatestSnapshot(ctx, "AAPL", model.DataTypeQuote)
	require.NoError(t, err)
	assert.Equal(t, want.Bid, got.Bid)
	assert.Equal(t, 149.00, got.Bid)
	assert.True(t, got.FetchedAt.Equal(second.FetchedAt), "lastUpdate %v, want %v", got.FetchedAt, second.FetchedAt)
}

func TestQuotes_SameTimestampEarlierFetchIgnored(t *testing.T) {
	q, _, _ := newTestQuotes(t)
	ctx := context.Background()

	late := snapAt(151, t0)
	late.FetchedAt = t0.Add(time.Hour)
	early := snapAt(150, t0)
	early.FetchedAt = t0.Add(time.Minute)

	require.NoError(t, q.SaveFetch(ctx, late, late.FetchedAt))
	require.NoError(t, q.SaveFetch(ctx, early, early.FetchedAt))

	got, err := q.LatestSnapshot(ctx, "AAPL", model.DataTypeQuote)
	require.NoError(t, err)
	assert.Equal(t, float64(151), got.Price)
}

func TestQuotes_TTL(t *testing.T) {
	q, _, mr := newTestQuotes(t)
	require.NoError(t, q.SaveFetch(context.Background(), snapAt(150, t0), t0))

	assert.Equal(t, time.Hour, mr.TTL(key("AAPL")))
}

func TestQuotes_RedisDownFallsBack(t *testing.T) {
	q, be, mr := newTestQuotes(t)
	be.latest["AAPL"] = snapAt(150.25, t0)
	mr.Close()

	got, err := q.LatestSnapshot(context.Background(), "AAPL", model.DataTypeQuote)
	require.NoError(t, err)
	assert.Equal(t, 150.25, got.Price)
	assert.Error(t, q.Ping(context.Background()))
}

func TestQuotes_Disabled(t *testing.T) {
	be := &fakeBackend{latest: map[string]model.Snapshot{"AAPL": snapAt(1, t0)}}
	q := NewQuotes(be, nil, time.Hour, nil)

	assert.False(t, q.Enabled())
	assert.NoError(t, q.Ping(context.Background()))

	_, err := q.LatestSnapshot(context.Background(), "AAPL", model.DataTypeQuote)
	require.NoError(t, err)
	_, err = q.LatestSnapshot(context.Background(), "AAPL", model.DataTypeQuote)
	require.NoError(t, err)
	assert.Equal(t, 2, be.reads)
}
