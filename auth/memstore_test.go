package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestCreateUserConcurrentDuplicates(t *testing.T) {
	t.Parallel()
	store := NewMemStore()

	const attempts = 32
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = store.CreateUser(context.Background(), "marvin", "hash")
		}(i)
	}
	wg.Wait()

	var created, taken int
	for _, err := range results {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrUsernameTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Errorf("%d registrations succeeded for one username, want exactly 1", created)
	}
	if taken != attempts-1 {
		t.Errorf("%d registrations reported the username taken, want %d", taken, attempts-1)
	}
}

func TestRevokeUnknownSession(t *testing.T) {
	t.Parallel()
	store := NewMemStore()

	if err := store.RevokeSession(context.Background(), "no-such-session"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
