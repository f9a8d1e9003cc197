package model

import (
	"testing"
	"time"
)

func TestTicker_Due(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name   string
		ticker Ticker
		want   bool
	}{
		{"never fetched", Ticker{Symbol: "AAPL", RefreshIntervalSeconds: 60}, true},
		{"fresh", Ticker{Symbol: "AAPL", RefreshIntervalSeconds: 60, LastFetchedAt: ago(30 * time.Second)}, false},
		{"exactly at interval", Ticker{Symbol: "AAPL", RefreshIntervalSeconds: 60, LastFetchedAt: ago(60 * time.Second)}, true},
		{"stale", Ticker{Symbol: "AAPL", RefreshIntervalSeconds: 60, LastFetchedAt: ago(120 * time.Second)}, true},
		{"zero interval", Ticker{Symbol: "AAPL", RefreshIntervalSeconds: 0, LastFetchedAt: ago(0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ticker.Due(now); got != tt.want {
				t.Errorf("Due() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTicker_Age(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	if _, ok := (Ticker{}).Age(now); ok {
		t.Error("Age() ok = true for never-fetched ticker, want false")
	}

	last := now.Add(-90 * time.Second)
	age, ok := Ticker{LastFetchedAt: &last}.Age(now)
	if !ok {
		t.Fatal("Age() ok = false, want true")
	}
	if age != 90*time.Second {
		t.Errorf("Age() = %v, want 90s", age)
	}
}

func TestNewQuoteSnapshot(t *testing.T) {
	ts := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	fetched := ts.Add(2 * time.Second)
	q := Quote{
		Symbol:        "AAPL",
		Price:         150.25,
		Bid:           150.20,
		Ask:           150.30,
		Spread:        0.10,
		Change:        1.80,
		ChangePercent: 1.2,
		Volume:        1000,
		Timestamp:     ts,
		Raw:           []byte(`{"p":150.25}`),
	}

	s := NewQuoteSnapshot(q, SourceAlpaca, fetched)

	if s.DataType != DataTypeQuote {
		t.Errorf("DataType = %q, want %q", s.DataType, DataTypeQuote)
	}
	if s.Source != SourceAlpaca {
		t.Errorf("Source = %q, want %q", s.Source, SourceAlpaca)
	}
	if s.Price != 150.25 {
		t.Errorf("Price = %v, want 150.25", s.Price)
	}
	if !s.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", s.Timestamp, ts)
	}
	if !s.FetchedAt.Equal(fetched) {
		t.Errorf("FetchedAt = %v, want %v", s.FetchedAt, fetched)
	}
	if string(s.RawData) != `{"p":150.25}` {
		t.Errorf("RawData = %s, want provenance payload", s.RawData)
	}
}

func TestSyncReport_Tally(t *testing.T) {
	r := SyncReport{
		Results: []SyncResult{
			Succeeded("AAPL", 150.25, 1.2),
			Succeeded("MSFT", 410.10, -0.4),
			Failed("TSLA", "no quote"),
			Skipped("NVDA", "refreshed 30s ago"),
		},
	}

	r.Tally()

	if r.UpdatedCount != 2 {
		t.Errorf("UpdatedCount = %d, want 2", r.UpdatedCount)
	}
	if r.FailedCount != 1 {
		t.Errorf("FailedCount = %d, want 1", r.FailedCount)
	}
	if r.SkippedCount != 1 {
		t.Errorf("SkippedCount = %d, want 1", r.SkippedCount)
	}
}

func TestSucceeded_Payload(t *testing.T) {
	r := Succeeded("AAPL", 150.25, 1.2)
	if r.Status != SyncSuccess {
		t.Errorf("Status = %q, want %q", r.Status, SyncSuccess)
	}
	if r.Price == nil || *r.Price != 150.25 {
		t.Errorf("Price = %v, want 150.25", r.Price)
	}
	if r.ChangePercent == nil || *r.ChangePercent != 1.2 {
		t.Errorf("ChangePercent = %v, want 1.2", r.ChangePercent)
	}
	if r.Message != "" {
		t.Errorf("Message = %q, want empty", r.Message)
	}
}

func TestSnapshot_NewerThan(t *testing.T) {
	t0 := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	snap := func(ts, fetched time.Time) Snapshot { return Snapshot{Timestamp: ts, FetchedAt: fetched} }

	tests := []struct {
		name string
		a, b Snapshot
		want bool
	}{
		{"later timestamp", snap(t0.Add(time.Minute), t0), snap(t0, t0.Add(time.Hour)), true},
		{"earlier timestamp", snap(t0, t0.Add(time.Hour)), snap(t0.Add(time.Minute), t0), false},
		{"same timestamp, later fetch", snap(t0, t0.Add(2*time.Hour)), snap(t0, t0.Add(time.Minute)), true},
		{"same timestamp, earlier fetch", snap(t0, t0.Add(time.Minute)), snap(t0, t0.Add(2*time.Hour)), false},
		{"identical", snap(t0, t0), snap(t0, t0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.NewerThan(tt.b); got != tt.want {
				t.Errorf("NewerThan() = %v, want %v", got, tt.want)
			}
		})
	}
}
