package assetcache

import (
	"path/filepath"
	"strings"
)

// Handle is a decoded asset owned by a Cache. Release frees whatever the
// decoder allocated; the cache calls it once, on Clear.
type Handle interface {
	Release()
}

// Kind describes one asset family: how to recognize its files and how to
// decode them.
type Kind[T Handle] struct {
	Name string
	// Extensions are matched without the leading dot, case-sensitively.
	Extensions []string
	// Fallback is the default path decoded when a requested file fails.
	Fallback string
	Decode   func(path string) (T, error)
}

// Matches reports whether path carries one of the kind's extensions.
func (k Kind[T]) Matches(path string) bool {
	ext := Extension(path)
	if ext == "" {
		return false
	}
	for _, e := range k.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Extension returns the file extension of path without the leading dot,
// or "" if there is none.
func Extension(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}
