// Package marketsync runs one pass over the ticker registry, refreshing
// every active ticker whose last fetch is older than its refresh interval.
//
// A run never aborts because of one ticker: each symbol produces exactly one
// model.SyncResult (success, error or skipped). Only a registry read failure
// is fatal. Symbols are processed concurrently with a bounded fan-out, and
// each symbol is owned by a single goroutine for the whole run.
package marketsync
