package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rickgao/tradergrail/internal/identity"
)

type fakeUsers struct {
	users map[string]*identity.User
	err   error
	calls int
}

func (f *fakeUsers) GetUser(ctx context.Context, token string) (*identity.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[token]
	if !ok {
		return nil, &identity.APIError{StatusCode: 401, Message: "invalid JWT"}
	}
	return u, nil
}

func TestAuthenticate(t *testing.T) {
	users := &fakeUsers{users: map[string]*identity.User{
		"user-token": {ID: "u-1", Email: "trader@example.com"},
	}}
	a := NewAuthenticator(users, "cron-secret")

	tests := []struct {
		name      string
		header    string
		wantID    string
		scheduler bool
		wantErr   error
	}{
		{name: "user token", header: "Bearer user-token", wantID: "u-1"},
		{name: "lowercase scheme", header: "bearer user-token", wantID: "u-1"},
		{name: "scheduler token", header: "Bearer cron-secret", wantID: SchedulerID, scheduler: true},
		{name: "missing header", header: "", wantErr: ErrUnauthenticated},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantErr: ErrUnauthenticated},
		{name: "empty token", header: "Bearer   ", wantErr: ErrUnauthenticated},
		{name: "rejected token", header: "Bearer expired", wantErr: ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := a.Authenticate(context.Background(), tt.header)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate failed: %v", err)
			}
			if p.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", p.ID, tt.wantID)
			}
			if p.Scheduler != tt.scheduler {
				t.Errorf("Scheduler = %v, want %v", p.Scheduler, tt.scheduler)
			}
		})
	}
}

func TestAuthenticate_SchedulerSkipsProvider(t *testing.T) {
	users := &fakeUsers{}
	a := NewAuthenticator(users, "cron-secret")

	if _, err := a.Authenticate(context.Background(), "Bearer cron-secret"); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if users.calls != 0 {
		t.Errorf("provider calls = %d, want 0", users.calls)
	}
}

func TestAuthenticate_ProviderDown(t *testing.T) {
	a := NewAuthenticator(&fakeUsers{err: &identity.APIError{StatusCode: 503}}, "")

	_, err := a.Authenticate(context.Background(), "Bearer user-token")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrUnauthenticated) {
		t.Error("provider outage should not read as unauthenticated")
	}
}

func TestAuthenticate_ProviderReturnsNoUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	a := NewAuthenticator(identity.NewClient(server.URL, "anon-key"), "")
	if _, err := a.Authenticate(context.Background(), "Bearer orphan-token"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestAuthenticate_NoProvider(t *testing.T) {
	a := NewAuthenticator(nil, "cron-secret")

	if _, err := a.Authenticate(context.Background(), "Bearer user-token"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key    string
		prefix int
		want   string
	}{
		{"PKABCDEFGHIJ1234", 6, "PKABCD...1234"},
		{"AIzaSyA-0123456789abcd", 10, "AIzaSyA-01...abcd"},
		{"short", 6, "*****"},
		{"", 6, ""},
		{"your-alpaca-key", 6, ""},
	}
	for _, tt := range tests {
		if got := MaskKey(tt.key, tt.prefix); got != tt.want {
			t.Errorf("MaskKey(%q, %d) = %q, want %q", tt.key, tt.prefix, got, tt.want)
		}
	}
}
