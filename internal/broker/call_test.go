package broker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCallWithContext(t *testing.T) {
	t.Run("returns value", func(t *testing.T) {
		v, err := callWithContext(context.Background(), func() (int, error) { return 42, nil })
		if err != nil || v != 42 {
			t.Errorf("callWithContext = (%d, %v), want (42, nil)", v, err)
		}
	})

	t.Run("returns error", func(t *testing.T) {
		want := errors.New("boom")
		_, err := callWithContext(context.Background(), func() (int, error) { return 0, want })
		if !errors.Is(err, want) {
			t.Errorf("err = %v, want %v", err, want)
		}
	})

	t.Run("already cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		called := false
		_, err := callWithContext(ctx, func() (int, error) { called = true; return 1, nil })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
		if called {
			t.Error("fn called after cancellation")
		}
	})

	t.Run("deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := callWithContext(ctx, func() (int, error) {
			time.Sleep(200 * time.Millisecond)
			return 1, nil
		})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v, want context.DeadlineExceeded", err)
		}
	})
}
