package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Registry Types
// -----------------------------------------------------------------------------

// Ticker is a tracked symbol and its refresh policy.
type Ticker struct {
	Symbol                 string     // Primary key (e.g., "AAPL")
	IsActive               bool       // Inactive tickers are skipped by sync
	RefreshIntervalSeconds int        // Minimum age before re-fetch
	LastFetchedAt          *time.Time // nil until the first successful fetch
	FetchCount             int64
	ErrorCount             int64
}

// Age returns the time elapsed since the last fetch. The second return value
// is false when the ticker has never been fetched (infinitely stale).
func (t Ticker) Age(now time.Time) (time.Duration, bool) {
	if t.LastFetchedAt == nil {
		return 0, false
	}
	return now.Sub(*t.LastFetchedAt), true
}

// Due reports whether the ticker is eligible for a re-fetch at now.
func (t Ticker) Due(now time.Time) bool {
	age, ok := t.Age(now)
	if !ok {
		return true
	}
	return age >= time.Duration(t.RefreshIntervalSeconds)*time.Second
}

// -----------------------------------------------------------------------------
// Time-Series Types
// -----------------------------------------------------------------------------

// DataTypeQuote is the only snapshot data type currently written.
const DataTypeQuote = "quote"

// SourceAlpaca tags rows written from the Alpaca feed.
const SourceAlpaca = "alpaca"

// Quote is a normalized quote returned by the fetcher.
type Quote struct {
	Symbol        string
	Price         float64 // Last trade price, ask if no trade
	Bid           float64
	Ask           float64
	Spread        float64 // Ask - Bid, 0 when either side is missing
	Change        float64 // Price - previous close
	ChangePercent float64
	Volume        float64   // Daily volume
	Timestamp     time.Time // Provider timestamp
	Raw           json.RawMessage
}

// Snapshot is one immutable recorded quote observation.
type Snapshot struct {
	ID            int64
	Symbol        string
	Price         float64
	Bid           float64
	Ask           float64
	Spread        float64
	Change        float64
	ChangePercent float64
	Volume        float64
	Timestamp     time.Time // Exchange-reported
	DataType      string    // "quote"
	Source        string    // Provenance tag, e.g. "alpaca"
	RawData       json.RawMessage
	FetchedAt     time.Time // Ingestion time
}

// NewQuoteSnapshot builds the snapshot row for a fetched quote.
func NewQuoteSnapshot(q Quote, source string, fetchedAt time.Time) Snapshot {
	return Snapshot{
		Symbol:        q.Symbol,
		Price:         q.Price,
		Bid:           q.Bid,
		Ask:           q.Ask,
		Spread:        q.Spread,
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		Volume:        q.Volume,
		Timestamp:     q.Timestamp,
		DataType:      DataTypeQuote,
		Source:        source,
		RawData:       q.Raw,
		FetchedAt:     fetchedAt,
	}
}

// NewerThan reports whether s sorts strictly after other: by quote timestamp,
// then by fetch time. The snapshot store and the quote cache share this order.
func (s Snapshot) NewerThan(other Snapshot) bool {
	if !s.Timestamp.Equal(other.Timestamp) {
		return s.Timestamp.After(other.Timestamp)
	}
	return s.FetchedAt.After(other.FetchedAt)
}

// HistoricalBar is an OHLCV aggregate for one timeframe bucket.
type HistoricalBar struct {
	Symbol    string
	Timeframe string // "1Min", "5Min", "15Min", "1Hour", "1Day"
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Source    string
	Synthetic bool // true for placeholder bars derived from the latest quote
}

// -----------------------------------------------------------------------------
// Sync Types
// -----------------------------------------------------------------------------

// SyncStatus is the outcome of one ticker in a sync run.
type SyncStatus string

const (
	SyncSuccess SyncStatus = "success"
	SyncError   SyncStatus = "error"
	SyncSkipped SyncStatus = "skipped"
)

// SyncResult is one outcome per ticker per sync run.
type SyncResult struct {
	Symbol        string     `json:"symbol"`
	Status        SyncStatus `json:"status"`
	Price         *float64   `json:"price,omitempty"`
	ChangePercent *float64   `json:"changePercent,omitempty"`
	Message       string     `json:"message,omitempty"`
}

// Succeeded builds a success result.
func Succeeded(symbol string, price, changePercent float64) SyncResult {
	return SyncResult{Symbol: symbol, Status: SyncSuccess, Price: &price, ChangePercent: &changePercent}
}

// Failed builds an error result.
func Failed(symbol, message string) SyncResult {
	return SyncResult{Symbol: symbol, Status: SyncError, Message: message}
}

// Skipped builds a skipped result.
func Skipped(symbol, message string) SyncResult {
	return SyncResult{Symbol: symbol, Status: SyncSkipped, Message: message}
}

// SyncReport aggregates one sync run.
type SyncReport struct {
	RunID        uuid.UUID    `json:"runId"`
	StartedAt    time.Time    `json:"startedAt"`
	FinishedAt   time.Time    `json:"finishedAt"`
	UpdatedCount int          `json:"updatedCount"`
	FailedCount  int          `json:"failedCount"`
	SkippedCount int          `json:"skippedCount"`
	Results      []SyncResult `json:"results"`
}

// Tally recomputes the counters from Results.
func (r *SyncReport) Tally() {
	r.UpdatedCount, r.FailedCount, r.SkippedCount = 0, 0, 0
	for _, res := range r.Results {
		switch res.Status {
		case SyncSuccess:
			r.UpdatedCount++
		case SyncError:
			r.FailedCount++
		case SyncSkipped:
			r.SkippedCount++
		}
	}
}

// -----------------------------------------------------------------------------
// Trading and Analysis Types
// -----------------------------------------------------------------------------

// TradeRecord is a submitted order persisted for the user's history.
type TradeRecord struct {
	ID         uuid.UUID
	UserID     string
	Symbol     string
	Side       string
	Quantity   float64
	Price      float64 // Filled average price, 0 until filled
	Status     string
	StrategyID string
	Metadata   map[string]any
	CreatedAt  time.Time
}

// Analysis is an LLM-generated market commentary.
type Analysis struct {
	Sentiment  string   `json:"sentiment"` // bullish, bearish, neutral
	Confidence float64  `json:"confidence"`
	Summary    string   `json:"summary"`
	Reasoning  []string `json:"reasoning"`
	Sources    []string `json:"sources"`
}

// AnalysisRecord is an Analysis persisted with its request context.
type AnalysisRecord struct {
	ID              uuid.UUID
	UserID          string
	Symbol          string
	PriceAtAnalysis float64
	Analysis        Analysis
	Metadata        map[string]any
	CreatedAt       time.Time
}
