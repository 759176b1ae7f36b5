package cache

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/logger"
	"github.com/IronManRust/culvers-ice-cream-ical/model"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func mustNewMemory(t *testing.T, opts ...MemoryOption) *Memory {
	t.Helper()
	c, err := NewMemory(opts...)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemory_ReadWrite(t *testing.T) {
	clock := newFakeClock()
	c := mustNewMemory(t, WithCacheLength(time.Minute), withClock(clock.Now))
	ctx := t.Context()

	if _, _, ok := c.Read(ctx, "flavors"); ok {
		t.Fatal("expected miss")
	}

	exp, ok := c.Write(ctx, "flavors", []byte("v1"))
	if !ok {
		t.Fatal("expected write to succeed")
	}
	if want := clock.Now().Add(time.Minute); !exp.Equal(want) {
		t.Fatalf("expires = %v, want %v", exp, want)
	}

	val, got, ok := c.Read(ctx, "flavors")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(val) != "v1" {
		t.Fatalf("got %q, want %q", val, "v1")
	}
	if !got.Equal(exp) {
		t.Fatalf("read expires = %v, want %v", got, exp)
	}

	// Returned bytes belong to the caller.
	val[0] = 'X'
	again, _, _ := c.Read(ctx, "flavors")
	if string(again) != "v1" {
		t.Fatalf("cache value mutated through returned slice: %q", again)
	}
}

func TestMemory_TTL(t *testing.T) {
	clock := newFakeClock()
	c := mustNewMemory(t, WithCacheLength(time.Minute), withClock(clock.Now))
	ctx := t.Context()

	c.Write(ctx, "location:1", []byte("x"))

	clock.Advance(59 * time.Second)
	if _, _, ok := c.Read(ctx, "location:1"); !ok {
		t.Fatal("expected hit before expiry")
	}

	clock.Advance(time.Second)
	if _, _, ok := c.Read(ctx, "location:1"); ok {
		t.Fatal("expected miss at expiry")
	}
}

func TestMemory_OverwriteExtendsExpiry(t *testing.T) {
	clock := newFakeClock()
	c := mustNewMemory(t, WithCacheLength(time.Minute), withClock(clock.Now))
	ctx := t.Context()

	c.Write(ctx, "k", []byte("old"))
	clock.Advance(30 * time.Second)
	exp, _ := c.Write(ctx, "k", []byte("new"))

	clock.Advance(45 * time.Second)
	val, got, ok := c.Read(ctx, "k")
	if !ok {
		t.Fatal("expected hit after overwrite")
	}
	if string(val) != "new" || !got.Equal(exp) {
		t.Fatalf("got %q expiring %v, want %q expiring %v", val, got, "new", exp)
	}
}

func TestMemory_ReadIsIdempotent(t *testing.T) {
	c := mustNewMemory(t)
	ctx := t.Context()
	c.Write(ctx, "flavors", []byte("catalog"))

	v1, e1, ok1 := c.Read(ctx, "flavors")
	v2, e2, ok2 := c.Read(ctx, "flavors")
	if !ok1 || !ok2 || !bytes.Equal(v1, v2) || !e1.Equal(e2) {
		t.Fatalf("reads differ: (%q,%v,%v) vs (%q,%v,%v)", v1, e1, ok1, v2, e2, ok2)
	}

	// A miss does not create an entry.
	c.Read(ctx, "location:99")
	if n := c.Statistics([]string{"location"})["location"]; n != 0 {
		t.Fatalf("location count = %d after miss, want 0", n)
	}
}

func TestMemory_Statistics(t *testing.T) {
	clock := newFakeClock()
	c := mustNewMemory(t, WithCacheLength(time.Minute), withClock(clock.Now))
	ctx := t.Context()

	c.Write(ctx, FlavorsKey(), []byte("f"))
	c.Write(ctx, LocationKey(1), []byte("l1"))
	c.Write(ctx, LocationKey(2), []byte("l2"))
	c.Write(ctx, CalendarKey(1, model.Date{Year: 2024, Month: time.May, Day: 1}), []byte("c"))
	c.Write(ctx, "Location:3", []byte("l3"))

	stats := c.Statistics([]string{" FLAVORS", "location", "calendar", "missing"})
	want := map[string]int{"flavors": 1, "location": 3, "calendar": 1, "missing": 0}
	for k, v := range want {
		if stats[k] != v {
			t.Fatalf("stats[%q] = %d, want %d (all: %v)", k, stats[k], v, stats)
		}
	}
	if len(stats) != len(want) {
		t.Fatalf("stats has %d prefixes, want %d", len(stats), len(want))
	}

	// The prefixes in use partition the live keys.
	total := 0
	for _, p := range Prefixes() {
		total += stats[p]
	}
	if total != 5 {
		t.Fatalf("partition total = %d, want 5", total)
	}

	clock.Advance(time.Minute)
	stats = c.Statistics(Prefixes())
	for _, p := range Prefixes() {
		if stats[p] != 0 {
			t.Fatalf("stats[%q] = %d after expiry, want 0", p, stats[p])
		}
	}
}

func TestMemory_Sweep(t *testing.T) {
	clock := newFakeClock()
	log := logger.NewTestLogger()
	c := mustNewMemory(t, WithCacheLength(time.Minute), withClock(clock.Now), WithLogger(log))
	ctx := t.Context()

	c.Write(ctx, "a", []byte("1"))
	clock.Advance(30 * time.Second)
	c.Write(ctx, "b", []byte("2"))
	clock.Advance(31 * time.Second)

	c.Sweep()

	c.mu.Lock()
	_, hasA := c.index["a"]
	_, hasB := c.index["b"]
	c.mu.Unlock()
	if hasA {
		t.Fatal("expected a to be swept")
	}
	if !hasB {
		t.Fatal("expected b to survive the sweep")
	}
	if _, ok := c.rc.Get("a"); ok {
		t.Fatal("expected a to be removed from the store")
	}
	if log.Count("DEBUG", "removed 1 expired") != 1 {
		t.Fatalf("missing sweep log: %v", log.Logs())
	}
}

func TestMemory_SweepKeepsConcurrentRewrite(t *testing.T) {
	clock := newFakeClock()
	c := mustNewMemory(t, WithCacheLength(time.Minute), withClock(clock.Now))
	ctx := t.Context()

	c.Write(ctx, "flavors", []byte("stale"))
	clock.Advance(2 * time.Minute)

	// Rewrite the key while the sweep is between its check and its delete.
	done := make(chan struct{})
	c.sweepHook = func(key string) {
		go func() {
			defer close(done)
			c.Write(ctx, key, []byte("fresh"))
		}()
		time.Sleep(20 * time.Millisecond)
	}
	c.Sweep()
	<-done

	v, _, ok := c.Read(ctx, "flavors")
	if !ok || string(v) != "fresh" {
		t.Fatalf("Read = %q, %v; want the rewritten value", v, ok)
	}
	if n := c.Statistics([]string{"flavors"})["flavors"]; n != 1 {
		t.Fatalf("flavors count = %d, want 1", n)
	}
}

func TestMemory_RejectedWrite(t *testing.T) {
	clock := newFakeClock()
	c := mustNewMemory(t, WithMaxCost(16), withClock(clock.Now))
	ctx := t.Context()

	exp, ok := c.Write(ctx, "calendar:1:2024-5-1", bytes.Repeat([]byte("x"), 256))
	if ok {
		t.Fatal("expected oversized write to be declined")
	}
	if !exp.Equal(clock.Now()) {
		t.Fatalf("expires = %v, want now %v", exp, clock.Now())
	}
	if _, _, hit := c.Read(ctx, "calendar:1:2024-5-1"); hit {
		t.Fatal("declined write must not be readable")
	}
	if n := c.Statistics([]string{"calendar"})["calendar"]; n != 0 {
		t.Fatalf("calendar count = %d, want 0", n)
	}
}

func TestMemory_Concurrent(t *testing.T) {
	c := mustNewMemory(t)
	ctx := t.Context()

	var hits atomic.Int32
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := LocationKey(i % 4)
			c.Write(ctx, key, []byte(key))
			if v, _, ok := c.Read(ctx, key); ok && string(v) == key {
				hits.Add(1)
			}
		}()
	}
	wg.Wait()
	if hits.Load() != 32 {
		t.Fatalf("hits = %d, want 32", hits.Load())
	}
}

func TestNewMemory_InvalidOptions(t *testing.T) {
	for name, opt := range map[string]MemoryOption{
		"length":   WithCacheLength(0),
		"interval": WithCleanupInterval(-time.Second),
		"cost":     WithMaxCost(0),
	} {
		if _, err := NewMemory(opt); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

type stubCache struct {
	Cache
	val     []byte
	expires time.Time
}

func (s *stubCache) Read(context.Context, string) ([]byte, time.Time, bool) {
	return s.val, s.expires, s.val != nil
}
