// Package cache holds the bounded result cache of the orchestrator.
package cache

import (
	"container/list"

	"github.com/cespare/xxhash/v2"

	"cpp-scratchpad/internal/result"
)

// DefaultCapacity is the number of outcomes kept before the oldest is evicted.
const DefaultCapacity = 50

// Key identifies a compile request, a 64 bit xxhash over the source, the
// standard input and the file name. Collisions are possible and accepted.
type Key uint64

// KeyOf derives the cache key of the request. The fields are separated so that
// moving text from one field to the next produces a different key.
func KeyOf(req *result.CompileRequest) Key {
	digest := xxhash.New()

	_, _ = digest.WriteString(req.SourceText)
	_, _ = digest.Write([]byte{0})
	_, _ = digest.WriteString(req.Stdin)
	_, _ = digest.Write([]byte{0})
	_, _ = digest.WriteString(req.FileName)

	return Key(digest.Sum64())
}

type entry struct {
	key     Key
	outcome *result.Outcome
}

// Cache is a fixed capacity map of outcomes that evicts in insertion order.
// Reads do not refresh an entry. It is not safe for concurrent use, the owner
// serializes access.
type Cache struct {
	capacity int
	order    *list.List
	entries  map[Key]*list.Element
}

func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Cache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[Key]*list.Element, capacity),
	}
}

// Get returns the stored outcome of the key if it is still cached.
func (c *Cache) Get(key Key) (*result.Outcome, bool) {
	element, ok := c.entries[key]

	if !ok {
		return nil, false
	}

	return element.Value.(*entry).outcome, true
}

// Put stores the outcome, evicting the oldest insertion once the capacity is
// exceeded. Replacing an existing key keeps its original position.
func (c *Cache) Put(key Key, outcome *result.Outcome) {
	if element, ok := c.entries[key]; ok {
		element.Value.(*entry).outcome = outcome
		return
	}

	c.entries[key] = c.order.PushBack(&entry{key: key, outcome: outcome})

	if c.order.Len() > c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
}

func (c *Cache) Len() int {
	return c.order.Len()
}
