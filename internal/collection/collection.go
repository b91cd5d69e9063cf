// Package collection implements the infinite-scroll page cache shared by
// every listing in the client. Entries grow append-only, concurrent
// fetches for the same key are deduplicated, and invalidation discards
// late-arriving results from superseded fetches.
package collection

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jomfood/jomdeals/internal/model"
)

// FetchFunc fetches one page (1-based) for a cache entry.
type FetchFunc[T any] func(ctx context.Context, page int) (model.Page[T], error)

// Collection is a process-wide page cache generic over item type. It is
// the only mutator of its own pages; callers never splice items in.
type Collection[T any] struct {
	entries map[string]*entry[T]
	logger  *slog.Logger
	mu      sync.Mutex
}

type entry[T any] struct {
	fetch      FetchFunc[T]
	inflight   *inflight[T]
	pages      []model.Page[T]
	generation uint64
	stale      bool
}

// inflight lets a second FetchNext for the same key attach to the
// outstanding request's outcome instead of issuing a duplicate.
type inflight[T any] struct {
	done chan struct{}
	err  error
}

// New creates an empty collection.
func New[T any]() *Collection[T] {
	return &Collection[T]{
		entries: make(map[string]*entry[T]),
		logger:  slog.Default().With("component", "collection"),
	}
}

// GetOrCreate registers key with its fetch function, keeping any cached
// pages already present. The fetch function is replaced so a refreshed
// request context takes effect on the next fetch.
func (c *Collection[T]) GetOrCreate(key string, fetch FetchFunc[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &entry[T]{}
		c.entries[key] = e
	}
	e.fetch = fetch
}

// FetchNext appends the next page for key. If a fetch for the key is
// already outstanding it attaches to that outcome; if the last appended
// page reported no next page it is a no-op. A failed fetch clears the
// in-flight state without touching previously appended pages.
func (c *Collection[T]) FetchNext(ctx context.Context, key string) error {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.fetch == nil {
		c.mu.Unlock()
		return fmt.Errorf("no fetch registered for key %q", key)
	}

	if fl := e.inflight; fl != nil {
		c.mu.Unlock()
		select {
		case <-fl.done:
			return fl.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if n := len(e.pages); n > 0 && !e.pages[n-1].HasNext() {
		c.mu.Unlock()
		return nil
	}

	next := len(e.pages) + 1
	gen := e.generation
	fetch := e.fetch
	fl := &inflight[T]{done: make(chan struct{})}
	e.inflight = fl
	c.mu.Unlock()

	page, err := fetch(ctx, next)

	c.mu.Lock()
	if e.inflight == fl {
		e.inflight = nil
	}
	if e.generation == gen {
		if err == nil {
			e.pages = append(e.pages, page)
			e.stale = false
		}
	} else if err == nil {
		// The entry was invalidated while this fetch was outstanding; the
		// result must not resurrect stale pages.
		c.logger.Debug("Discarding page from superseded fetch",
			"key", key,
			"page", next)
	}
	c.mu.Unlock()

	fl.err = err
	close(fl.done)
	return err
}

// Invalidate marks the entry stale and drops its pages. The next
// FetchNext starts over from page 1, and any outstanding fetch for the
// old generation has its result discarded.
func (c *Collection[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.generation++
	e.pages = nil
	e.stale = true
	e.inflight = nil
}

// InvalidatePrefix invalidates every entry whose key starts with prefix
// and returns how many were hit. Sweeps target a query family instead of
// flushing the whole cache, which bounds the refetch storm afterward.
func (c *Collection[T]) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, e := range c.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		e.generation++
		e.pages = nil
		e.stale = true
		e.inflight = nil
		count++
	}
	return count
}

// Flatten concatenates all appended pages in fetch order, page 1 first,
// preserving server order within each page. This ordering is the only
// thing giving the user a stable scroll position, so it never reorders.
func (c *Collection[T]) Flatten(key string) []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil
	}

	total := 0
	for _, p := range e.pages {
		total += len(p.Items)
	}
	items := make([]T, 0, total)
	for _, p := range e.pages {
		items = append(items, p.Items...)
	}
	return items
}

// HasNext reports whether another page can be fetched for key: either
// nothing has been fetched yet or the last page advertised a next one.
func (c *Collection[T]) HasNext(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if len(e.pages) == 0 {
		return true
	}
	return e.pages[len(e.pages)-1].HasNext()
}

// PageCount returns how many pages are currently appended for key.
func (c *Collection[T]) PageCount(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return 0
	}
	return len(e.pages)
}

// Stale reports whether the entry was invalidated since its last fetch.
func (c *Collection[T]) Stale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return ok && e.stale
}
