// Package idempotency provides an in-process replay cache keyed by client
// supplied idempotency keys. A key is reserved atomically before its
// operation runs, so two requests racing on the same key never both execute:
// the loser waits for the winner's result. Only successful results are
// retained; a failure releases the reservation so the client can retry the
// same key with a corrected request.
package idempotency

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Result is the cached outcome of an operation. Status and Body are replayed
// verbatim to later requests carrying the same key.
type Result struct {
	Status      int
	ContentType string
	Body        []byte
}

// entry tracks one key. done is closed when the in-flight operation settles,
// at which point result is non-nil (cached success) or the entry has been
// removed from the map (released failure).
type entry struct {
	done      chan struct{}
	result    *Result
	expiresAt time.Time
}

// Cache holds idempotency reservations and completed results.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]*entry
	retention time.Duration
	logger    *slog.Logger
}

// NewCache creates a cache whose completed results live for retention.
func NewCache(logger *slog.Logger, retention time.Duration) *Cache {
	return &Cache{
		entries:   make(map[string]*entry),
		retention: retention,
		logger:    logger,
	}
}

// Execute runs op under the idempotency key. The first caller for a key runs
// op; concurrent callers with the same key block until that run settles. A
// successful result (op returned nil and Status below 400) is cached for the
// retention window and replayed. A failed run releases the key, waking any
// waiters to compete for a fresh reservation.
//
// The second return value reports whether the result was replayed from cache.
func (c *Cache) Execute(ctx context.Context, key string, op func() (*Result, error)) (*Result, bool, error) {
	for {
		c.mu.Lock()

		e, ok := c.entries[key]
		if ok && e.result != nil && time.Now().After(e.expiresAt) {
			// Expired completed entry, drop it and reserve anew.
			// In-flight entries have a zero expiresAt guard via nil result.
			delete(c.entries, key)
			ok = false
		}

		if !ok {
			e = &entry{done: make(chan struct{})}
			c.entries[key] = e
			c.mu.Unlock()

			return c.run(key, e, op)
		}

		if e.result != nil {
			result := e.result
			c.mu.Unlock()
			return result, true, nil
		}

		// An operation for this key is in flight. Wait for it to settle.
		c.mu.Unlock()
		select {
		case <-e.done:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}

		c.mu.Lock()
		if e.result != nil {
			result := e.result
			c.mu.Unlock()
			return result, true, nil
		}
		// The winner failed and released the key. Loop to reserve it.
		c.mu.Unlock()
	}
}

// run executes op for a freshly reserved key and settles the entry. The
// settle is deferred: op runs handler code, and a panic unwinding through
// here (recovered further up the middleware chain) must still release the
// reservation, or the key would block every later request carrying it.
func (c *Cache) run(key string, e *entry, op func() (*Result, error)) (result *Result, replayed bool, err error) {
	defer func() {
		c.mu.Lock()
		if err == nil && result != nil && result.Status < 400 {
			e.result = result
			e.expiresAt = time.Now().Add(c.retention)
		} else {
			// Failure, or a panic that left result unset, releases the
			// reservation so the key can be retried.
			delete(c.entries, key)
		}
		c.mu.Unlock()
		close(e.done)
	}()

	result, err = op()
	return result, false, err
}

// Len reports the number of live entries. Used by tests and the sweeper log.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartSweeper periodically removes expired completed entries until ctx is
// cancelled. In-flight reservations are never swept; expiry for them is
// meaningless since retention starts at completion.
func (c *Cache) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := c.sweep(time.Now())
				if removed > 0 {
					c.logger.Debug("Swept expired idempotency entries", "removed", removed)
				}
			}
		}
	}()
}

func (c *Cache) sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if e.result != nil && now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
