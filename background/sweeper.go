// Package background contains services that run outside the HTTP
// request-response cycle. The session sweeper keeps the sessions table from
// growing without bound. The auth middleware already rejects revoked and
// expired sessions, so they only need to be removed eventually, not
// synchronously.
package background

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/user/taskserver-go/auth"
)

const (
	// sweepInterval is how often expired and revoked sessions are purged.
	sweepInterval = 10 * time.Minute

	// sweepTimeout bounds a single purge query.
	sweepTimeout = 30 * time.Second
)

// StartSessionSweeper launches a goroutine that periodically deletes revoked
// and expired sessions. Closing stopChan stops the sweeper; the returned
// WaitGroup is done once the final sweep has finished, so shutdown can wait
// for it.
func StartSessionSweeper(store auth.Store, stopChan <-chan struct{}) *sync.WaitGroup {
	log.Println("session sweeper starting")

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		defer log.Println("session sweeper stopped")

		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sweep(store)
			case <-stopChan:
				// One last pass so a clean shutdown leaves no garbage behind.
				sweep(store)
				return
			}
		}
	}()

	return &wg
}

func sweep(store auth.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	removed, err := store.PurgeSessions(ctx)
	if err != nil {
		log.Printf("session sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("session sweep removed %d dead sessions", removed)
	}
}
