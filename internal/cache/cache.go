// Package cache holds the in-memory snapshot of active trackers that
// the reconciliation loop iterates. The change feed replaces the whole
// set; a replacement arriving mid-cycle is deferred until the cycle
// releases its hold, so the set being iterated never mutates.
package cache

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sriRacha21/rct-backend/internal/models"
)

// TrackerCache is the single shared structure between the change-feed
// callback and the matcher. Replace never blocks behind a cycle; it
// records the incoming set and the release swaps it in (last writer
// wins).
type TrackerCache struct {
	mu         sync.Mutex
	current    []models.Tracker
	pending    []models.Tracker
	hasPending bool
	held       bool
	populated  bool

	log *zap.Logger
}

func New(log *zap.Logger) *TrackerCache {
	return &TrackerCache{log: log}
}

// Populate installs the initial set from the one-time startup fetch.
// The scheduler must not run before this.
func (c *TrackerCache) Populate(set []models.Tracker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = set
	c.populated = true
}

// Populated reports whether the startup fetch has been applied.
func (c *TrackerCache) Populated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.populated
}

// Replace installs a full replacement set from the change feed. If a
// cycle currently holds the cache the set is parked and applied when
// the hold releases; the feed callback never waits.
func (c *TrackerCache) Replace(set []models.Tracker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held {
		c.pending = set
		c.hasPending = true
		c.log.Debug("cache replacement deferred until cycle completes",
			zap.Int("trackers", len(set)))
		return
	}
	c.current = set
	c.log.Debug("cache replaced", zap.Int("trackers", len(set)))
}

// Acquire hands the current snapshot to one reconciliation cycle.
// ok is false when a cycle is already in flight or the cache has not
// been populated. The returned release must be called on every exit
// path; it is safe to call more than once.
func (c *TrackerCache) Acquire() (snapshot []models.Tracker, release func(), ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held || !c.populated {
		return nil, nil, false
	}
	c.held = true

	var once sync.Once
	release = func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.held = false
			if c.hasPending {
				c.current = c.pending
				c.pending = nil
				c.hasPending = false
			}
		})
	}
	return c.current, release, true
}

// Len returns the size of the current set.
func (c *TrackerCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.current)
}
