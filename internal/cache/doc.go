// Package cache fronts the snapshot store's latest-quote lookup with Redis.
//
// Postgres stays the source of truth. Redis holds at most one entry per
// symbol, and a write only replaces it when the new snapshot's timestamp is
// newer, so overlapping sync runs cannot roll the cached quote backwards.
// Redis failures are logged and the call falls through to the store.
package cache
