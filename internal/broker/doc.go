// Package broker adapts the Alpaca market-data and paper-trading APIs to the
// shapes the rest of the service uses.
//
// The Alpaca SDK does not accept a context, so every call goes through
// callWithContext which bounds it by the caller's deadline. A timed-out call
// returns ctx.Err(); the abandoned SDK request finishes in the background.
package broker
