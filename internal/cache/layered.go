package cache

import (
	"errors"
	"time"
)

// LayeredCache reads through an ordered list of caches, fastest first.
// A hit in a slower layer is copied into every faster one.
type LayeredCache struct {
	layers []Cache
}

// NewLayered stacks the given caches; nil entries are skipped
func NewLayered(layers ...Cache) *LayeredCache {
	c := &LayeredCache{}
	for _, l := range layers {
		if l != nil {
			c.layers = append(c.layers, l)
		}
	}
	return c
}

// NewLayeredCache keeps completions in memory for memoryTTL and on disk
// under diskDir for diskTTL
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return NewLayered(
		NewMemoryCache(memoryTTL, 10*time.Minute),
		NewDiskCache(diskDir, diskTTL),
	)
}

// Get returns the first hit and backfills the layers above it with their
// own default TTL
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	for i, l := range c.layers {
		val, ok := l.Get(key)
		if !ok {
			continue
		}
		for _, upper := range c.layers[:i] {
			_ = upper.Set(key, val, 0)
		}
		return val, true
	}
	return nil, false
}

// Set writes every layer; a failing layer does not stop the others
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	var errs []error
	for _, l := range c.layers {
		errs = append(errs, l.Set(key, value, ttl))
	}
	return errors.Join(errs...)
}

// Delete removes key from every layer
func (c *LayeredCache) Delete(key string) error {
	var errs []error
	for _, l := range c.layers {
		errs = append(errs, l.Delete(key))
	}
	return errors.Join(errs...)
}

// Clear empties every layer
func (c *LayeredCache) Clear() error {
	var errs []error
	for _, l := range c.layers {
		errs = append(errs, l.Clear())
	}
	return errors.Join(errs...)
}
