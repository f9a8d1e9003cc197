// Package model defines shared data types used across the dashboard backend.
//
// All types mirror the database schema in internal/database/schema.sql.
//
// Conventions:
//   - Prices: float64 dollars as reported by the brokerage feed
//   - Timestamps: time.Time in UTC
//   - IDs: string for symbols, uuid.UUID for sync runs, trades and analyses
package model
