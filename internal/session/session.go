// Package session tracks revoked admin session tokens until they expire.
package session

import (
	"context"
	"time"

	"bookshelf/internal/platform/logging"
)

type Blacklist interface {
	Revoke(ctx context.Context, jti, subject string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

// Janitor periodically removes blacklist entries whose tokens have expired
// anyway.
type Janitor struct {
	blacklist Blacklist
	interval  time.Duration
}

func NewJanitor(blacklist Blacklist, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Janitor{blacklist: blacklist, interval: interval}
}

// Run blocks until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	n, err := j.blacklist.CleanupExpired(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("token blacklist cleanup failed")
		return
	}
	if n > 0 {
		logging.Debug().Int64("removed", n).Msg("token blacklist cleaned")
	}
}
