// Package cache implements the process-local TTL cache shared by the
// aggregators.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Clock abstracts the time source so staleness can be tested with a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall-clock time source.
func SystemClock() Clock { return systemClock{} }

type entry struct {
	ts      time.Time
	payload any
}

// TTLCache maps string keys to timestamped payloads. Staleness is decided
// per read against a caller-supplied max age; a stale entry stays in the map
// until overwritten but is invisible to readers. Capacity is unbounded.
type TTLCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   Clock

	// sf collapses concurrent loads for the same key so a burst of misses
	// costs a single upstream call.
	sf singleflight.Group
}

// New creates an empty cache backed by the given clock; a nil clock selects
// wall-clock time.
func New(clock Clock) *TTLCache {
	if clock == nil {
		clock = systemClock{}
	}
	return &TTLCache{
		entries: make(map[string]entry),
		clock:   clock,
	}
}

// Get returns the payload stored under key if the entry is younger than
// maxAge.
func (c *TTLCache) Get(key string, maxAge time.Duration) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock.Now().Sub(e.ts) >= maxAge {
		return nil, false
	}
	return e.payload, true
}

// Set stores payload under key stamped with the current time, replacing any
// previous entry wholesale.
func (c *TTLCache) Set(key string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{ts: c.clock.Now(), payload: payload}
}

// GetOrLoad returns the fresh payload for key, invoking load on a miss.
// Concurrent misses for the same key share one load. A failed load is
// returned to every waiter and nothing is cached, so the next read retries.
// hit reports whether the value was served from the cache without loading.
func (c *TTLCache) GetOrLoad(key string, maxAge time.Duration, load func() (any, error)) (payload any, hit bool, err error) {
	if payload, ok := c.Get(key, maxAge); ok {
		return payload, true, nil
	}

	payload, err, _ = c.sf.Do(key, func() (any, error) {
		// Another waiter may have populated the entry while this caller
		// queued behind the flight.
		if payload, ok := c.Get(key, maxAge); ok {
			return payload, nil
		}
		payload, err := load()
		if err != nil {
			return nil, err
		}
		c.Set(key, payload)
		return payload, nil
	})
	if err != nil {
		return nil, false, err
	}
	return payload, false, nil
}
