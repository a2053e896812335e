package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func TestLRUCache_SlidingTTL(t *testing.T) {
	clk := newFakeClock()
	c := NewLRUCache[string](10, time.Minute, WithClock[string](clk.Now))

	c.Set("a", "alpha")
	clk.Advance(50 * time.Second)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "alpha", v)

	// the Get above pushed expiry to t+110s
	clk.Advance(50 * time.Second)
	_, ok = c.Get("a")
	assert.True(t, ok)

	clk.Advance(61 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Zero(t, c.Size())
}

func TestLRUCache_CapacityEviction(t *testing.T) {
	var evicted []string
	c := NewLRUCache[int](2, time.Hour, WithEvictHook(func(k string, _ int) {
		evicted = append(evicted, k)
	}))

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a") // b is now least recently used
	c.Set("c", 3)

	assert.Equal(t, []string{"b"}, evicted)
	_, ok := c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Size())

	c.Delete("a")
	assert.Equal(t, []string{"b"}, evicted, "delete is not an eviction")
	assert.Equal(t, 1, c.Size())
}

func TestLRUCache_Overwrite(t *testing.T) {
	c := NewLRUCache[int](1, time.Hour)
	c.Set("a", 1)
	c.Set("a", 2)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Size())
}

func TestLRUCache_CleanExpired(t *testing.T) {
	clk := newFakeClock()
	var evicted int
	c := NewLRUCache[int](10, time.Minute,
		WithClock[int](clk.Now),
		WithEvictHook(func(string, int) { evicted++ }))

	c.Set("old1", 1)
	c.Set("old2", 2)
	clk.Advance(30 * time.Second)
	c.Set("fresh", 3)
	clk.Advance(45 * time.Second)

	assert.Equal(t, 2, c.CleanExpired())
	assert.Equal(t, 2, evicted)
	assert.Equal(t, 1, c.Size())
}

func TestLRUCache_MinSize(t *testing.T) {
	c := NewLRUCache[int](0, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	assert.Equal(t, 1, c.Size())
}

func TestManager_Sweep(t *testing.T) {
	clk := newFakeClock()
	c := NewLRUCache[int](10, time.Minute, WithClock[int](clk.Now))
	c.Set("a", 1)
	c.Set("b", 2)

	var swept int
	m := NewManager(func(n int) { swept += n })
	m.Register(c)

	assert.Zero(t, m.Sweep())
	assert.Zero(t, swept)

	clk.Advance(2 * time.Minute)
	assert.Equal(t, 2, m.Sweep())
	assert.Equal(t, 2, swept)
}

func TestManager_StopIdempotent(t *testing.T) {
	m := NewManager(nil)
	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop()

	idle := NewManager(nil)
	idle.Stop()
}

func TestLRUCache_Concurrent(t *testing.T) {
	c := NewLRUCache[int](64, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := string(rune('a' + (i+g)%26))
				c.Set(key, i)
				c.Get(key)
				if i%7 == 0 {
					c.Delete(key)
				}
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Size(), 26)
}
