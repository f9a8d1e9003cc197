// Package identity is a client for the managed auth provider's user
// endpoint (GoTrue-compatible, GET /auth/v1/user).
//
// It resolves an end user's access token into a User. Server errors and
// rate limits are retried with jittered exponential backoff; 4xx responses
// are returned immediately as *APIError.
package identity
