// Package scheduler runs periodic housekeeping for the API process.
//
// Jobs accept a context and report how much work they did so they can be
// driven both by the in-process ticker (Loop) and by one-off invocations
// such as the CLI's cache purge command.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultCleanupInterval is how often Loop purges expired cache rows.
const DefaultCleanupInterval = 15 * time.Minute

// Purger removes expired entries. *kvstore.Store satisfies it.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// CleanupService deletes expired rows from the local cache. Reads already
// treat them as misses; this only reclaims space.
type CleanupService struct {
	store  Purger
	logger *slog.Logger
}

// NewCleanupService creates a CleanupService.
func NewCleanupService(store Purger, logger *slog.Logger) *CleanupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupService{store: store, logger: logger}
}

// PurgeExpired runs one cleanup pass and returns the number of rows removed.
func (c *CleanupService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := c.store.Purge(ctx)
	if err != nil {
		return 0, fmt.Errorf("purging expired cache entries: %w", err)
	}
	if n > 0 {
		c.logger.InfoContext(ctx, "purged expired cache entries", "count", n)
	}
	return n, nil
}

// Loop calls PurgeExpired every interval until ctx is cancelled. Failures
// are logged and the next tick retries.
func (c *CleanupService) Loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.PurgeExpired(ctx); err != nil {
				c.logger.ErrorContext(ctx, "cache cleanup failed", "error", err)
			}
		}
	}
}
