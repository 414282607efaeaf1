package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

type localEntry[V any] struct {
	value   V
	expires time.Time
}

// Local: потокобезопасный кеш в памяти процесса с единым TTL.
// Просроченные записи удаляются при чтении и в Sweep.
type Local[V any] struct {
	mu      sync.RWMutex
	entries map[string]localEntry[V]
	ttl     time.Duration
	now     func() time.Time

	hits      atomic.Int64
	misses    atomic.Int64
	lastReset time.Time
}

// NewLocal создаёт кеш; ttl <= 0: записи не устаревают
func NewLocal[V any](ttl time.Duration) *Local[V] {
	return &Local[V]{
		entries:   make(map[string]localEntry[V]),
		ttl:       ttl,
		now:       time.Now,
		lastReset: time.Now(),
	}
}

// Get возвращает значение, если оно есть и не устарело
func (c *Local[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.expired(e) {
		c.Delete(key)
		ok = false
	}
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Set сохраняет значение
func (c *Local[V]) Set(key string, value V) {
	e := localEntry[V]{value: value}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

// Delete удаляет ключ; отсутствующий ключ не ошибка
func (c *Local[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Sweep удаляет все устаревшие записи и возвращает их число
func (c *Local[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len возвращает число записей, включая ещё не вычищенные устаревшие
func (c *Local[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetMetrics возвращает метрики кеша.
func (c *Local[V]) GetMetrics() Metrics {
	hits, misses := c.hits.Load(), c.misses.Load()
	m := Metrics{Hits: hits, Misses: misses, Keys: c.Len(), LastReset: c.lastReset}
	if total := hits + misses; total > 0 {
		m.HitRatio = float64(hits) / float64(total)
	}
	return m
}

func (c *Local[V]) expired(e localEntry[V]) bool {
	return !e.expires.IsZero() && !c.now().Before(e.expires)
}
