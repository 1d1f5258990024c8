package background

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/user/taskserver-go/auth"
)

func TestSweeperRunsFinalSweepOnStop(t *testing.T) {
	t.Parallel()
	store := auth.NewMemStore()

	expired := &auth.Session{
		ID:        "expired-session",
		UserID:    1,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	live := &auth.Session{
		ID:        "live-session",
		UserID:    1,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	for _, s := range []*auth.Session{expired, live} {
		if err := store.CreateSession(context.Background(), s); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	stop := make(chan struct{})
	wg := StartSessionSweeper(store, stop)
	close(stop)
	wg.Wait()

	if _, err := store.GetSession(context.Background(), expired.ID); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Errorf("expired session survived the final sweep: %v", err)
	}
	if _, err := store.GetSession(context.Background(), live.ID); err != nil {
		t.Errorf("live session should survive the sweep: %v", err)
	}
}
