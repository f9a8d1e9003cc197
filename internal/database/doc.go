// Package database provides the PostgreSQL connection pool and schema bootstrap.
//
// Tables:
//   - market_tickers: symbols to track and their refresh bookkeeping
//   - market_snapshots: append-only quote log (read-through cache for the UI)
//   - market_bars: OHLCV bars per timeframe
//   - trades, ai_analysis: per-user history of orders and AI commentary
package database
