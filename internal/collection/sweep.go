package collection

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically invalidates prefix-matched cache entries so
// long-lived listings pick up fresh server state without a full flush.
type Sweeper[T any] struct {
	collection *Collection[T]
	logger     *slog.Logger
	prefixes   []string
	interval   time.Duration
}

// NewSweeper creates a sweeper over the given query-family prefixes.
func NewSweeper[T any](c *Collection[T], interval time.Duration, prefixes ...string) *Sweeper[T] {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper[T]{
		collection: c,
		interval:   interval,
		prefixes:   prefixes,
		logger:     slog.Default().With("component", "sweeper"),
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper[T]) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep invalidates every configured prefix once.
func (s *Sweeper[T]) Sweep() {
	for _, prefix := range s.prefixes {
		n := s.collection.InvalidatePrefix(prefix)
		if n > 0 {
			s.logger.Debug("Swept cache prefix", "prefix", prefix, "entries", n)
		}
	}
}
