// Package dedupe tracks client request ids so a retried upload maps back to
// the analysis it already created.
package dedupe

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxSize = 50000

// Deduper records seen request keys to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks whether key was seen. If it was, it
	// returns the ref recorded with it and true. Otherwise it records ref
	// and returns false.
	SeenAndRecord(ctx context.Context, key, ref string) (string, bool)

	// Unrecord forgets key so the request can be retried, e.g. after the
	// queue rejected it.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// lruDeduper is a bounded Deduper. When full, the oldest key is evicted.
type lruDeduper struct {
	cache   *lru.Cache[string, string]
	maxSize int
	onEvict func(key, ref string)
}

// NewInMemoryDeduper creates a bounded in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &lruDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}

	var cache *lru.Cache[string, string]
	var err error
	if d.onEvict != nil {
		cache, err = lru.NewWithEvict[string, string](d.maxSize, d.onEvict)
	} else {
		cache, err = lru.New[string, string](d.maxSize)
	}
	if err != nil {
		// only returned for a non-positive size, which WithMaxSize prevents
		panic(err)
	}
	d.cache = cache
	return d
}

// SeenAndRecord implements Deduper. A lookup does not refresh a key's age.
func (d *lruDeduper) SeenAndRecord(_ context.Context, key, ref string) (string, bool) {
	prev, seen, _ := d.cache.PeekOrAdd(key, ref)
	if seen {
		return prev, true
	}
	return "", false
}

// Unrecord implements Deduper.
func (d *lruDeduper) Unrecord(_ context.Context, key string) {
	d.cache.Remove(key)
}

// Size returns the current number of keys.
func (d *lruDeduper) Size() int64 {
	return int64(d.cache.Len())
}
