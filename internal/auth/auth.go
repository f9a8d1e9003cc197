// Package auth authenticates dashboard callers from their bearer token.
//
// Two kinds of caller exist: end users, whose access tokens are resolved by
// the managed auth provider, and the external scheduler that triggers sync
// runs with a static token from config.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/rickgao/tradergrail/internal/identity"
)

// ErrUnauthenticated is returned when a caller has no valid credentials.
var ErrUnauthenticated = errors.New("unauthenticated")

// SchedulerID is the principal id used for scheduler-triggered calls.
const SchedulerID = "scheduler"

// UserResolver resolves an access token into a user.
type UserResolver interface {
	GetUser(ctx context.Context, token string) (*identity.User, error)
}

// Principal is an authenticated caller.
type Principal struct {
	ID        string
	Email     string
	Scheduler bool
}

// Authenticator checks bearer tokens.
type Authenticator struct {
	users          UserResolver
	schedulerToken string
}

// NewAuthenticator creates an Authenticator. users may be nil when only the
// scheduler token is accepted; schedulerToken may be empty to disable it.
func NewAuthenticator(users UserResolver, schedulerToken string) *Authenticator {
	return &Authenticator{users: users, schedulerToken: schedulerToken}
}

// Authenticate resolves the Authorization header value into a Principal.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (Principal, error) {
	token, ok := BearerToken(header)
	if !ok {
		return Principal{}, ErrUnauthenticated
	}

	if a.schedulerToken != "" &&
		subtle.ConstantTimeCompare([]byte(token), []byte(a.schedulerToken)) == 1 {
		return Principal{ID: SchedulerID, Scheduler: true}, nil
	}

	if a.users == nil {
		return Principal{}, ErrUnauthenticated
	}

	u, err := a.users.GetUser(ctx, token)
	if err != nil {
		var apiErr *identity.APIError
		if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
			return Principal{}, ErrUnauthenticated
		}
		return Principal{}, fmt.Errorf("resolve user: %w", err)
	}

	return Principal{ID: u.ID, Email: u.Email}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// MaskKey returns key with everything but the first prefix and last four
// characters hidden. Placeholder and short keys are masked entirely.
func MaskKey(key string, prefix int) string {
	if !Configured(key) {
		return ""
	}
	if len(key) <= prefix+4 {
		return strings.Repeat("*", len(key))
	}
	return key[:prefix] + "..." + key[len(key)-4:]
}

// Configured reports whether key looks like a real credential rather than an
// empty value or a "your-..." template placeholder.
func Configured(key string) bool {
	return key != "" && !strings.Contains(key, "your-")
}
