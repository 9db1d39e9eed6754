package assetcache

import (
	"fmt"
	"sync"
)

// Result holds the outcome of preloading one file.
type Result struct {
	Path string
	// Reused is set when the key was already cached and nothing was decoded.
	Reused bool
	Err    error
}

// Preload decodes every file under dir whose extension belongs to the
// cache's kind and stores it under its listed path. Files that fail to
// decode are logged, reported in the results and left out of the cache.
// Keys already cached are reused unless they hold the fallback asset, in
// which case the listed file is decoded again and replaces it. Only a listing failure is returned as an error.
func (c *Cache[T]) Preload(dir string, recursive bool) ([]Result, error) {
	paths, err := c.lister.List(dir, recursive)
	if err != nil {
		return nil, fmt.Errorf("assetcache: preload %s: %w", dir, err)
	}

	var matched []string
	for _, p := range paths {
		if c.kind.Matches(p) {
			matched = append(matched, p)
		}
	}
	results := make([]Result, len(matched))

	// Worker pool
	work := make(chan int, c.workers*2)
	var wg sync.WaitGroup
	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = c.preloadOne(matched[idx])
			}
		}()
	}
	for i := range matched {
		work <- i
	}
	close(work)
	wg.Wait()

	loaded, failed := 0, 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case !r.Reused:
			loaded++
		}
	}
	c.log.Infof("Preloaded %s: %d loaded, %d reused, %d failed", dir, loaded, len(results)-loaded-failed, failed)
	return results, nil
}

func (c *Cache[T]) preloadOne(path string) Result {
	c.mu.RLock()
	fallback := c.fallback
	e, exists := c.items[path]
	reusable := exists && path != fallback && !e.substituted
	c.mu.RUnlock()
	if reusable {
		return Result{Path: path, Reused: true}
	}

	h, err := c.kind.Decode(path)
	if err != nil {
		c.log.Warnf("Skipping %s: %v", path, err)
		return Result{Path: path, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, exists := c.items[path]; exists {
		if path != fallback && !e.substituted {
			h.Release()
			return Result{Path: path, Reused: true}
		}
		// Placeholders and the fallback key are replaced; handles already
		// handed out stay valid until Clear.
		c.retired = append(c.retired, e.handle)
	}
	c.items[path] = &entry[T]{handle: h}
	return Result{Path: path}
}
