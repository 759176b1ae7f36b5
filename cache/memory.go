package cache

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/logger"
	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/dgraph-io/ristretto/v2/z"
	"github.com/robfig/cron/v3"
)

const (
	DefaultCacheLength     = time.Hour
	DefaultCleanupInterval = time.Hour
	DefaultMaxCost         = 64 << 20

	keyStripes = 64
)

// entry is what ristretto holds. rejected is set when ristretto's admission
// policy drops the entry.
type entry struct {
	key       string
	data      []byte
	expiresAt time.Time
	rejected  atomic.Bool
}

// Memory is an in-process Cache backed by ristretto. Entries expire after the
// configured cache length; expired entries are treated as absent on read and
// physically removed by a sweep that runs every cleanup interval.
type Memory struct {
	rc   *ristretto.Cache[string, *entry]
	cron *cron.Cron
	log  logger.Logger
	now  func() time.Time

	length time.Duration

	// index tracks the live entry per key for statistics and sweeping.
	// ristretto must never be called while mu is held: its callbacks lock mu.
	mu    sync.Mutex
	index map[string]*entry

	// keyMu serializes a Write of a key with the sweep of that key.
	keyMu [keyStripes]sync.Mutex

	// sweepHook, when set, runs while Sweep holds a key's lock, between
	// the staleness check and the delete.
	sweepHook func(key string)

	closeOnce sync.Once
}

var _ Cache = (*Memory)(nil)

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	length   time.Duration
	interval time.Duration
	maxCost  int64
	log      logger.Logger
	now      func() time.Time
}

// WithCacheLength sets how long written entries stay fresh.
func WithCacheLength(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.length = d }
}

// WithCleanupInterval sets how often expired entries are swept.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.interval = d }
}

// WithMaxCost bounds the total size in bytes of stored keys and values.
func WithMaxCost(n int64) MemoryOption {
	return func(c *memoryConfig) { c.maxCost = n }
}

// WithLogger sets the logger used for hit/miss and sweep messages.
func WithLogger(l logger.Logger) MemoryOption {
	return func(c *memoryConfig) { c.log = l }
}

func withClock(now func() time.Time) MemoryOption {
	return func(c *memoryConfig) { c.now = now }
}

// NewMemory creates a Memory cache and starts its sweep schedule. Call
// Close to stop it.
func NewMemory(opts ...MemoryOption) (*Memory, error) {
	cfg := memoryConfig{
		length:   DefaultCacheLength,
		interval: DefaultCleanupInterval,
		maxCost:  DefaultMaxCost,
		now:      time.Now,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.length <= 0 {
		return nil, errors.Newf("cache length must be positive, got %s", cfg.length)
	}
	if cfg.interval <= 0 {
		return nil, errors.Newf("cleanup interval must be positive, got %s", cfg.interval)
	}
	if cfg.maxCost <= 0 {
		return nil, errors.Newf("max cost must be positive, got %d", cfg.maxCost)
	}
	if cfg.log == nil {
		cfg.log = logger.Nop()
	}

	m := &Memory{
		log:    cfg.log.WithPrefix("[cache]"),
		now:    cfg.now,
		length: cfg.length,
		index:  make(map[string]*entry),
	}

	// Roughly one counter per expected entry of 1 KiB, times ten.
	counters := max(cfg.maxCost/1024*10, 1000)
	rc, err := ristretto.NewCache(&ristretto.Config[string, *entry]{
		NumCounters:        counters,
		MaxCost:            cfg.maxCost,
		BufferItems:        64,
		IgnoreInternalCost: true,
		OnEvict: func(item *ristretto.Item[*entry]) {
			m.forget(item.Value)
		},
		OnReject: func(item *ristretto.Item[*entry]) {
			if item.Value != nil {
				item.Value.rejected.Store(true)
			}
			m.forget(item.Value)
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create ristretto cache")
	}
	m.rc = rc

	m.cron = cron.New()
	if _, err := m.cron.AddFunc(fmt.Sprintf("@every %s", cfg.interval), m.Sweep); err != nil {
		rc.Close()
		return nil, errors.Wrap(err, "schedule cache sweep")
	}
	m.cron.Start()
	return m, nil
}

func (m *Memory) lockKey(key string) func() {
	h, _ := z.KeyToHash(key)
	mu := &m.keyMu[h%keyStripes]
	mu.Lock()
	return mu.Unlock
}

// forget drops e from the index if it is still the current entry for its key.
func (m *Memory) forget(e *entry) {
	if e == nil {
		return
	}
	m.mu.Lock()
	if cur, ok := m.index[e.key]; ok && cur == e {
		delete(m.index, e.key)
	}
	m.mu.Unlock()
}

func (m *Memory) Read(_ context.Context, key string) ([]byte, time.Time, bool) {
	e, ok := m.rc.Get(key)
	if !ok || e == nil || !m.now().Before(e.expiresAt) {
		requestsTotal.WithLabelValues(prefixOf(key), "miss").Inc()
		m.log.Debug("cache read %s - miss", key)
		return nil, time.Time{}, false
	}
	requestsTotal.WithLabelValues(prefixOf(key), "hit").Inc()
	m.log.Debug("cache read %s - hit", key)
	return bytes.Clone(e.data), e.expiresAt, true
}

func (m *Memory) Write(_ context.Context, key string, val []byte) (time.Time, bool) {
	now := m.now()
	e := &entry{key: key, data: bytes.Clone(val), expiresAt: now.Add(m.length)}

	unlock := m.lockKey(key)
	defer unlock()

	m.mu.Lock()
	m.index[key] = e
	m.mu.Unlock()

	cost := int64(len(key) + len(e.data))
	if !m.rc.SetWithTTL(key, e, cost, m.length) {
		m.forget(e)
		return m.writeFailed(key, now)
	}
	m.rc.Wait()
	if e.rejected.Load() {
		return m.writeFailed(key, now)
	}
	writesTotal.WithLabelValues(prefixOf(key), "success").Inc()
	m.log.Debug("cache write %s - success", key)
	return e.expiresAt, true
}

func (m *Memory) writeFailed(key string, now time.Time) (time.Time, bool) {
	writesTotal.WithLabelValues(prefixOf(key), "failure").Inc()
	m.log.Warn("cache write %s - failure", key)
	return now, false
}

func (m *Memory) Statistics(prefixes []string) map[string]int {
	stats := make(map[string]int, len(prefixes))
	for _, p := range prefixes {
		stats[normalize(p)] = 0
	}

	now := m.now()
	m.mu.Lock()
	keys := make([]string, 0, len(m.index))
	for k, e := range m.index {
		if now.Before(e.expiresAt) {
			keys = append(keys, normalize(k))
		}
	}
	m.mu.Unlock()

	for p := range stats {
		for _, k := range keys {
			if strings.HasPrefix(k, p) {
				stats[p]++
			}
		}
	}
	return stats
}

// Sweep removes every expired entry. It runs on the cleanup schedule and may
// also be called directly.
func (m *Memory) Sweep() {
	now := m.now()
	var expired []*entry
	m.mu.Lock()
	for _, e := range m.index {
		if !now.Before(e.expiresAt) {
			expired = append(expired, e)
		}
	}
	m.mu.Unlock()

	removed := 0
	for _, e := range expired {
		if m.sweepEntry(e) {
			removed++
		}
	}
	if removed > 0 {
		m.rc.Wait()
		sweptTotal.Add(float64(removed))
	}
	m.log.Debug("cache sweep removed %d expired entries", removed)
}

// sweepEntry deletes e unless its key was rewritten since the snapshot.
func (m *Memory) sweepEntry(e *entry) bool {
	unlock := m.lockKey(e.key)
	defer unlock()

	m.mu.Lock()
	current := m.index[e.key] == e
	m.mu.Unlock()
	if !current {
		return false
	}
	if cur, ok := m.rc.Get(e.key); ok && cur != e {
		return false
	}
	if m.sweepHook != nil {
		m.sweepHook(e.key)
	}
	m.rc.Del(e.key)
	m.forget(e)
	return true
}

// Close stops the sweep schedule and releases the store.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		<-m.cron.Stop().Done()
		m.rc.Close()
	})
	return nil
}
