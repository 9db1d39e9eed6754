package assetcache

import "github.com/sirupsen/logrus"

// Substitution describes a resolve whose file could not be decoded.
type Substitution struct {
	Path     string
	Fallback string
	Err      error
	// FallbackErr is set when the fallback file failed as well; nothing was
	// stored in that case.
	FallbackErr error
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	logger   *logrus.Entry
	lister   Lister
	workers  int
	fallback *string
	onSubst  func(Substitution)
}

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(l *logrus.Entry) Option {
	return func(o *options) { o.logger = l }
}

// WithLister sets the directory listing used by Preload. Defaults to DirLister.
func WithLister(l Lister) Option {
	return func(o *options) { o.lister = l }
}

// WithWorkers sets how many files Preload decodes concurrently.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithFallbackPath overrides the kind's default fallback path.
func WithFallbackPath(path string) Option {
	return func(o *options) { o.fallback = &path }
}

// WithSubstitutionHook registers fn to be called after every fallback
// substitution in Resolve.
func WithSubstitutionHook(fn func(Substitution)) Option {
	return func(o *options) { o.onSubst = fn }
}
