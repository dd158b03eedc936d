package service

import (
	"context"
	"log"
	"time"
)

// StartSweeper periodically revokes expired refresh tokens until the context
// is cancelled.  The sweep is idempotent and safe to run concurrently with
// other instances, so there is no coordination; every replica may run it.
func StartSweeper(ctx context.Context, s *AuthService, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				log.Printf("sweeper: sweep expired tokens: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("sweeper: revoked %d expired refresh tokens", n)
			}
		}
	}
}
