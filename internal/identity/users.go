package identity

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrNoToken is returned when GetUser is called with an empty token.
var ErrNoToken = errors.New("access token is required")

// User is an authenticated end user.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// GetUser returns the user that owns token.
func (c *Client) GetUser(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	var u User
	if err := c.get(ctx, "/auth/v1/user", token, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: "token resolved to no user"}
	}
	return &u, nil
}
