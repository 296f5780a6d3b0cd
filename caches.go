package dbus

import (
	"errors"
	"sync"
)

// errNotFound is returned by cache.Get when the key has no cached
// value or error yet.
var errNotFound = errors.New("not found in cache")

// cache memoizes the result of a fallible computation, keyed by K.
// Both successful values and errors get cached, so that a type which
// fails to produce an encoder, decoder or signature isn't
// recomputed on every lookup.
type cache[K comparable, V any] struct {
	m sync.Map
}

type cacheEntry[V any] struct {
	val V
	err error
}

func (c *cache[K, V]) Get(k K) (V, error) {
	ent, ok := c.m.Load(k)
	if !ok {
		var zero V
		return zero, errNotFound
	}
	e := ent.(cacheEntry[V])
	return e.val, e.err
}

func (c *cache[K, V]) Set(k K, val V) {
	c.m.Store(k, cacheEntry[V]{val: val})
}

func (c *cache[K, V]) SetErr(k K, err error) {
	var zero V
	c.m.Store(k, cacheEntry[V]{val: zero, err: err})
}
