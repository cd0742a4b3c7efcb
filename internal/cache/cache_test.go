package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestGetMissingKey(t *testing.T) {
	c := New(newFakeClock())

	payload, ok := c.Get("fx:USD", time.Minute)
	assert.False(t, ok)
	assert.Nil(t, payload)
}

func TestSetThenGet(t *testing.T) {
	c := New(newFakeClock())
	c.Set("fx:USD", "payload")

	payload, ok := c.Get("fx:USD", time.Minute)
	assert.True(t, ok)
	assert.Equal(t, "payload", payload)
}

func TestStaleEntryInvisible(t *testing.T) {
	clock := newFakeClock()
	c := New(clock)
	c.Set("fx:USD", "payload")

	clock.Advance(time.Minute)

	_, ok := c.Get("fx:USD", time.Minute)
	assert.False(t, ok, "entry at exactly max age should be invisible")

	// A shorter-lived reader sees nothing, a longer-lived one still does.
	_, ok = c.Get("fx:USD", 30*time.Second)
	assert.False(t, ok)
	payload, ok := c.Get("fx:USD", 2*time.Minute)
	assert.True(t, ok)
	assert.Equal(t, "payload", payload)
}

func TestOverwriteRefreshesTimestamp(t *testing.T) {
	clock := newFakeClock()
	c := New(clock)
	c.Set("fx:USD", "old")

	clock.Advance(2 * time.Minute)
	c.Set("fx:USD", "new")

	payload, ok := c.Get("fx:USD", time.Minute)
	assert.True(t, ok)
	assert.Equal(t, "new", payload)
}

func TestGetOrLoadPopulatesOnMiss(t *testing.T) {
	c := New(newFakeClock())

	payload, hit, err := c.GetOrLoad("fx:USD", time.Minute, func() (any, error) {
		return "loaded", nil
	})
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "loaded", payload)

	payload, hit, err = c.GetOrLoad("fx:USD", time.Minute, func() (any, error) {
		t.Fatal("load should not run on a fresh entry")
		return nil, nil
	})
	assert.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "loaded", payload)
}

func TestGetOrLoadCollapsesConcurrentMisses(t *testing.T) {
	c := New(newFakeClock())
	var loads int64

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload, _, err := c.GetOrLoad("cg:bitcoin|usd", time.Minute, func() (any, error) {
				atomic.AddInt64(&loads, 1)
				time.Sleep(10 * time.Millisecond)
				return "prices", nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "prices", payload)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&loads))
}

func TestGetOrLoadErrorNotCached(t *testing.T) {
	c := New(newFakeClock())
	loadErr := errors.New("provider down")

	_, _, err := c.GetOrLoad("fx:USD", time.Minute, func() (any, error) {
		return nil, loadErr
	})
	assert.ErrorIs(t, err, loadErr)

	// The failed load must not poison the cache; the next read loads again.
	payload, hit, err := c.GetOrLoad("fx:USD", time.Minute, func() (any, error) {
		return "recovered", nil
	})
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "recovered", payload)
}

func TestGetOrLoadReloadsAfterExpiry(t *testing.T) {
	clock := newFakeClock()
	c := New(clock)
	loads := 0
	load := func() (any, error) {
		loads++
		return loads, nil
	}

	payload, _, err := c.GetOrLoad("fx:USD", time.Minute, load)
	assert.NoError(t, err)
	assert.Equal(t, 1, payload)

	clock.Advance(61 * time.Second)

	payload, hit, err := c.GetOrLoad("fx:USD", time.Minute, load)
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, payload)
}
