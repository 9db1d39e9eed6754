// Package assetcache keeps one decoded copy of every asset file a game asks
// for, keyed by the path string the caller used.
//
// A Cache never reports decode errors from Resolve: a file that cannot be
// decoded is replaced by the kind's fallback asset and stored under the
// requested path. Entries live until Clear.
package assetcache

import (
	"errors"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
)

var errNoFallback = errors.New("assetcache: no fallback path configured")

// Cache is a concurrency-safe path-keyed asset cache for one Kind.
type Cache[T Handle] struct {
	mu       sync.RWMutex
	kind     Kind[T]
	items    map[string]*entry[T]
	retired  []T // handles replaced under the fallback key, released on Clear
	fallback string

	log     *logrus.Entry
	lister  Lister
	workers int
	onSubst func(Substitution)
}

type entry[T Handle] struct {
	handle      T
	substituted bool // filled from the fallback file
}

// New creates an empty cache for kind.
func New[T Handle](kind Kind[T], opts ...Option) *Cache[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logrus.WithField("kind", kind.Name)
	}
	if o.lister == nil {
		o.lister = DirLister{}
	}
	if o.workers <= 0 {
		o.workers = 1
	}
	fallback := kind.Fallback
	if o.fallback != nil {
		fallback = *o.fallback
	}

	return &Cache[T]{
		kind:     kind,
		items:    make(map[string]*entry[T]),
		fallback: fallback,
		log:      o.logger,
		lister:   o.lister,
		workers:  o.workers,
		onSubst:  o.onSubst,
	}
}

// Kind returns the name of the asset kind this cache holds.
func (c *Cache[T]) Kind() string {
	return c.kind.Name
}

// Matches reports whether path has one of the cache's recognized extensions.
func (c *Cache[T]) Matches(path string) bool {
	return c.kind.Matches(path)
}

// Resolve returns the handle for path, decoding and storing it on first use.
//
// The fallback path itself is never served from the cache; it is decoded on
// every call. If path cannot be decoded the fallback file is decoded instead
// and stored under path. If the fallback fails too, the zero handle is
// returned and nothing is stored.
func (c *Cache[T]) Resolve(path string) T {
	// Fast path: read lock
	c.mu.RLock()
	fallback := c.fallback
	if e, ok := c.items[path]; ok && path != fallback {
		c.mu.RUnlock()
		return e.handle
	}
	c.mu.RUnlock()

	// Slow path: decode outside the lock
	h, substituted, ok := c.load(path, fallback)
	if !ok {
		var zero T
		return zero
	}

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, exists := c.items[path]; exists {
		if path != fallback {
			h.Release()
			return e.handle
		}
		c.retired = append(c.retired, e.handle)
	}
	c.items[path] = &entry[T]{handle: h, substituted: substituted}
	return h
}

func (c *Cache[T]) load(path, fallback string) (T, bool, bool) {
	h, err := c.kind.Decode(path)
	if err == nil {
		c.log.Debugf("Loaded %s", path)
		return h, false, true
	}

	sub := Substitution{Path: path, Fallback: fallback, Err: err}
	switch {
	case fallback == "":
		sub.FallbackErr = errNoFallback
	case fallback == path:
		sub.FallbackErr = err
	default:
		h, sub.FallbackErr = c.kind.Decode(fallback)
	}

	if sub.FallbackErr != nil {
		c.log.Errorf("Failed to load %s and its fallback %q: %v", path, fallback, sub.FallbackErr)
	} else {
		c.log.Warnf("Substituted %s with %s: %v", path, fallback, err)
	}
	if c.onSubst != nil {
		c.onSubst(sub)
	}

	if sub.FallbackErr != nil {
		var zero T
		return zero, false, false
	}
	return h, true, true
}

// Peek returns the cached handle for path without decoding anything.
func (c *Cache[T]) Peek(path string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[path]
	if !ok {
		var zero T
		return zero, false
	}
	return e.handle, true
}

// Substituted reports whether the entry for path holds the fallback asset.
func (c *Cache[T]) Substituted(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[path]
	return ok && e.substituted
}

// Count returns the number of cached keys.
func (c *Cache[T]) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Keys returns the cached keys in sorted order.
func (c *Cache[T]) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	slices.Sort(keys)
	return keys
}

// FallbackPath returns the path decoded when a requested file fails.
func (c *Cache[T]) FallbackPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fallback
}

// SetFallbackPath changes the fallback path. Existing entries are kept as they are.
func (c *Cache[T]) SetFallbackPath(path string) {
	c.mu.Lock()
	c.fallback = path
	c.mu.Unlock()
}

// Clear releases every handle the cache owns and empties it. Handles
// returned earlier must not be used afterwards.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	items, retired := c.items, c.retired
	c.items = make(map[string]*entry[T])
	c.retired = nil
	c.mu.Unlock()

	for _, e := range items {
		e.handle.Release()
	}
	for _, h := range retired {
		h.Release()
	}
	c.log.Debugf("Cleared %d entries", len(items))
}
