// Package cache memoizes expensive derived results (resampled patterns,
// sweep grids) for one session. A Cache is created by its owner and passed
// explicitly; there is no package-level instance. Every Cache holds a bounded
// number of entries and evicts the least recently used.
package cache

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
)

// DefaultCapacity is the entry limit of a cache made with New.
const DefaultCapacity = 64

// Key is a content hash of the inputs that determine a cached value.
type Key uint64

// KeyBuilder hashes a sequence of labelled values into a Key.
type KeyBuilder struct {
	d   *xxhash.Digest
	buf [8]byte
}

func NewKeyBuilder(kind string) *KeyBuilder {
	k := &KeyBuilder{d: xxhash.New()}
	return k.String(kind)
}

func (k *KeyBuilder) String(s string) *KeyBuilder {
	binary.LittleEndian.PutUint64(k.buf[:], uint64(len(s)))
	k.d.Write(k.buf[:])
	k.d.WriteString(s)
	return k
}

func (k *KeyBuilder) Float(v float64) *KeyBuilder {
	binary.LittleEndian.PutUint64(k.buf[:], math.Float64bits(v))
	k.d.Write(k.buf[:])
	return k
}

func (k *KeyBuilder) Floats(vs ...float64) *KeyBuilder {
	k.Int(len(vs))
	for _, v := range vs {
		k.Float(v)
	}
	return k
}

func (k *KeyBuilder) Int(v int) *KeyBuilder {
	binary.LittleEndian.PutUint64(k.buf[:], uint64(v))
	k.d.Write(k.buf[:])
	return k
}

func (k *KeyBuilder) Key() Key {
	return Key(k.d.Sum64())
}

// PatternKey identifies a resampled pattern by frequency, generating geometry
// and output resolution.
func PatternKey(freqGHz float64, geometry string, thetaStepDeg, phiStepDeg float64) Key {
	return NewKeyBuilder("pattern").Float(freqGHz).String(geometry).Float(thetaStepDeg).Float(phiStepDeg).Key()
}

// Stats are hit, miss and eviction counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Entries   int    `json:"entries"`
	Capacity  int    `json:"capacity"`
}

// Cache is a concurrency-safe LRU from content keys to values of type V.
type Cache[V any] struct {
	name     string
	capacity int
	entries  *lru.Cache[Key, V]

	hits, misses, evictions atomic.Uint64
}

// New returns an empty cache of DefaultCapacity entries; name appears in log
// fields.
func New[V any](name string) *Cache[V] {
	return NewSized[V](name, DefaultCapacity)
}

// NewSized returns an empty cache holding at most size entries. size <= 0
// selects DefaultCapacity.
func NewSized[V any](name string, size int) *Cache[V] {
	if size <= 0 {
		size = DefaultCapacity
	}
	c := &Cache[V]{name: name, capacity: size}
	// lru.NewWithEvict only fails for a non-positive size.
	c.entries, _ = lru.NewWithEvict[Key, V](size, func(Key, V) { c.evictions.Add(1) })
	return c
}

func (c *Cache[V]) Get(k Key) (V, bool) {
	v, ok := c.entries.Get(k)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

func (c *Cache[V]) Put(k Key, v V) {
	if evicted := c.entries.Add(k, v); evicted {
		log.WithFields(log.Fields{"cache": c.name, "capacity": c.capacity}).Debug("cache evicted oldest entry")
	}
}

// GetOrCompute returns the cached value for k, or runs compute and stores
// its result. Errors are not cached. Concurrent misses on one key may compute
// more than once.
func (c *Cache[V]) GetOrCompute(k Key, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(k); ok {
		log.WithFields(log.Fields{"cache": c.name, "key": uint64(k)}).Debug("cache hit")
		return v, nil
	}
	v, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Put(k, v)
	return v, nil
}

func (c *Cache[V]) Len() int { return c.entries.Len() }

func (c *Cache[V]) Capacity() int { return c.capacity }

// Purge drops every entry and resets the counters.
func (c *Cache[V]) Purge() {
	n := c.entries.Len()
	c.entries.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
	log.WithFields(log.Fields{"cache": c.name, "dropped": n}).Info("cache purged")
}

func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   c.entries.Len(),
		Capacity:  c.capacity,
	}
}
