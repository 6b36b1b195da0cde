// Copyright 2026 The data-mirage Authors
// SPDX-License-Identifier: MIT

// Package cache provides a small LRU cache for memoized drawables: the
// renderer's background gradients and point sprites are expensive to build
// and cheap to reuse, but must stay bounded so a long session with many
// resizes cannot grow memory without limit.
//
// The cache is invalidated wholesale via Clear on resize and dispose, never
// partially, to keep the renderer's invariants simple.
package cache

import "sync"

// DefaultCapacity is the entry limit used when a non-positive capacity is
// requested. Sized for one background gradient plus a realistic spread of
// sprite batch keys.
const DefaultCapacity = 256

// LRU is a bounded least-recently-used cache.
//
// The render path is single-threaded and cooperative, so a single mutex is
// enough; it exists because hosts may call Resize (which clears the cache)
// from a different goroutine than the frame loop.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	entries  map[K]*node[K, V]
	head     *node[K, V] // most recently used
	tail     *node[K, V] // least recently used

	hits      uint64
	misses    uint64
	evictions uint64
}

// node is a doubly-linked LRU list node.
type node[K comparable, V any] struct {
	key        K
	value      V
	prev, next *node[K, V]
}

// New creates an LRU cache holding at most capacity entries.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LRU[K, V]{
		capacity: capacity,
		entries:  make(map[K]*node[K, V]),
	}
}

// Get retrieves a cached value, marking it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.moveToFront(n)
	c.hits++
	return n.value, true
}

// GetOrCreate returns the cached value for key, building it with create on
// a miss. The preferred access method: lookup and insert stay one critical
// section, so two frames cannot build the same drawable twice.
func (c *LRU[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		c.moveToFront(n)
		c.hits++
		return n.value
	}
	c.misses++

	value := create()
	c.insert(key, value)
	return value
}

// Set stores a value, evicting the least recently used entry if needed.
// The value is stored as-is, not copied; callers must not mutate it after
// caching.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		n.value = value
		c.moveToFront(n)
		return
	}
	c.insert(key, value)
}

// Len returns the current number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry. Counters are preserved; use Stats to observe
// hit rates across clears.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*node[K, V])
	c.head = nil
	c.tail = nil
}

// Stats reports cumulative hit/miss/eviction counters.
func (c *LRU[K, V]) Stats() (hits, misses, evictions uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, c.evictions
}

// insert adds a new entry at the front, evicting from the tail if full.
// Caller holds the lock.
func (c *LRU[K, V]) insert(key K, value V) {
	for len(c.entries) >= c.capacity {
		if c.tail == nil {
			break
		}
		evicted := c.tail
		c.unlink(evicted)
		delete(c.entries, evicted.key)
		c.evictions++
	}

	n := &node[K, V]{key: key, value: value}
	c.entries[key] = n
	c.pushFront(n)
}

// moveToFront marks a node most recently used. Caller holds the lock.
func (c *LRU[K, V]) moveToFront(n *node[K, V]) {
	if c.head == n {
		return
	}
	c.unlink(n)
	c.pushFront(n)
}

// pushFront links a detached node at the head. Caller holds the lock.
func (c *LRU[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

// unlink detaches a node from the list. Caller holds the lock.
func (c *LRU[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else if c.head == n {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else if c.tail == n {
		c.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}
