// Package manager owns the texture, sound and font caches of one game and
// routes asset paths to them by extension.
package manager

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"game-assets/internal/assetcache"
	"game-assets/internal/config"
	"game-assets/internal/font"
	"game-assets/internal/sound"
	"game-assets/internal/texture"

	"github.com/sirupsen/logrus"
)

// ErrUnknownKind is returned for paths no cache recognizes.
var ErrUnknownKind = errors.New("manager: no asset kind for extension")

// Manager bundles one cache per asset kind.
type Manager struct {
	cfg      config.Config
	textures *texture.Cache
	sounds   *sound.Cache
	fonts    *font.Cache
}

// Option configures a Manager.
type Option func(*settings)

type settings struct {
	fsys    fs.FS
	logger  *logrus.Logger
	onSubst func(kind string, s assetcache.Substitution)
}

// WithFS makes every cache read from fsys instead of the host filesystem.
// It takes precedence over config.Config.Root.
func WithFS(fsys fs.FS) Option {
	return func(s *settings) { s.fsys = fsys }
}

// WithLogger sets the logger the caches log to. Defaults to the standard logger.
func WithLogger(l *logrus.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithSubstitutionHook is called whenever a cache falls back on a failed file.
func WithSubstitutionHook(fn func(kind string, s assetcache.Substitution)) Option {
	return func(s *settings) { s.onSubst = fn }
}

// cleanFS accepts any spelling of a relative path ("./a.png", "a//b.png")
// by cleaning names before they reach fs.FS, which only takes canonical ones.
// Cache keys keep the caller's spelling.
type cleanFS struct {
	fsys fs.FS
}

func (c cleanFS) Open(name string) (fs.File, error) {
	return c.fsys.Open(path.Clean(filepath.ToSlash(name)))
}

// New builds the caches described by a resolved config.
func New(cfg config.Config, opts ...Option) *Manager {
	s := settings{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.fsys == nil && cfg.Root != "" {
		s.fsys = os.DirFS(cfg.Root)
	}
	if s.fsys != nil {
		s.fsys = cleanFS{s.fsys}
	}

	var lister assetcache.Lister = assetcache.DirLister{}
	if s.fsys != nil {
		lister = assetcache.FSLister{FS: s.fsys}
	}

	common := func(kind string, kc config.KindConfig) []assetcache.Option {
		o := []assetcache.Option{
			assetcache.WithLister(lister),
			assetcache.WithWorkers(cfg.Workers),
			assetcache.WithFallbackPath(kc.Fallback),
			assetcache.WithLogger(s.logger.WithField("kind", kind)),
		}
		if s.onSubst != nil {
			o = append(o, assetcache.WithSubstitutionHook(func(sub assetcache.Substitution) {
				s.onSubst(kind, sub)
			}))
		}
		return o
	}

	return &Manager{
		cfg:      cfg,
		textures: texture.NewCache(s.fsys, common("texture", cfg.Textures)...),
		sounds:   sound.NewCache(s.fsys, common("sound", cfg.Sounds)...),
		fonts:    font.NewCache(s.fsys, common("font", cfg.Fonts)...),
	}
}

// Textures returns the texture cache.
func (m *Manager) Textures() *texture.Cache { return m.textures }

// Sounds returns the sound cache.
func (m *Manager) Sounds() *sound.Cache { return m.sounds }

// Fonts returns the font cache.
func (m *Manager) Fonts() *font.Cache { return m.fonts }

// KindFor returns the name of the cache that recognizes path's extension.
func (m *Manager) KindFor(path string) (string, bool) {
	switch {
	case m.textures.Matches(path):
		return m.textures.Kind(), true
	case m.sounds.Matches(path):
		return m.sounds.Kind(), true
	case m.fonts.Matches(path):
		return m.fonts.Kind(), true
	}
	return "", false
}

// Resolution summarizes a path resolved through its cache.
type Resolution struct {
	Kind        string
	Path        string
	Loaded      bool // a handle came back
	Substituted bool // the handle holds the fallback asset
}

// Resolve resolves path through the cache matching its extension.
func (m *Manager) Resolve(path string) (Resolution, error) {
	kind, ok := m.KindFor(path)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %s", ErrUnknownKind, path)
	}

	r := Resolution{Kind: kind, Path: path}
	switch kind {
	case m.textures.Kind():
		r.Loaded = m.textures.Resolve(path) != nil
		r.Substituted = m.textures.Substituted(path)
	case m.sounds.Kind():
		r.Loaded = m.sounds.Resolve(path) != nil
		r.Substituted = m.sounds.Substituted(path)
	case m.fonts.Kind():
		r.Loaded = m.fonts.Resolve(path) != nil
		r.Substituted = m.fonts.Substituted(path)
	}
	return r, nil
}

// Report holds the preload results of one cache.
type Report struct {
	Kind    string
	Dir     string
	Results []assetcache.Result
}

// Failed returns the number of files that could not be decoded.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// PreloadAll preloads dir into every cache; each keeps only its own extensions.
func (m *Manager) PreloadAll(dir string, recursive bool) ([]Report, error) {
	var reports []Report
	for _, p := range m.preloaders() {
		results, err := p.preload(dir, recursive)
		if err != nil {
			return reports, err
		}
		reports = append(reports, Report{Kind: p.kind, Dir: dir, Results: results})
	}
	return reports, nil
}

// PreloadConfigured preloads the directories listed in the config.
func (m *Manager) PreloadConfigured() ([]Report, error) {
	var reports []Report
	for _, p := range m.preloaders() {
		for _, d := range p.dirs {
			results, err := p.preload(d.Dir, d.IsRecursive())
			if err != nil {
				return reports, err
			}
			reports = append(reports, Report{Kind: p.kind, Dir: d.Dir, Results: results})
		}
	}
	return reports, nil
}

type preloader struct {
	kind    string
	dirs    []config.PreloadDir
	preload func(dir string, recursive bool) ([]assetcache.Result, error)
}

func (m *Manager) preloaders() []preloader {
	return []preloader{
		{m.textures.Kind(), m.cfg.Textures.Preload, m.textures.Preload},
		{m.sounds.Kind(), m.cfg.Sounds.Preload, m.sounds.Preload},
		{m.fonts.Kind(), m.cfg.Fonts.Preload, m.fonts.Preload},
	}
}

// Stat describes the contents of one cache.
type Stat struct {
	Kind        string
	Entries     int
	Substituted int
	Bytes       int64
}

type sized interface {
	assetcache.Handle
	Bytes() int64
}

func statOf[T sized](c *assetcache.Cache[T]) Stat {
	s := Stat{Kind: c.Kind()}
	for _, key := range c.Keys() {
		h, ok := c.Peek(key)
		if !ok {
			continue
		}
		s.Entries++
		if c.Substituted(key) {
			s.Substituted++
		}
		s.Bytes += h.Bytes()
	}
	return s
}

// Stats returns one Stat per cache.
func (m *Manager) Stats() []Stat {
	return []Stat{statOf(m.textures), statOf(m.sounds), statOf(m.fonts)}
}

// Clear empties every cache and releases all handles.
func (m *Manager) Clear() {
	m.textures.Clear()
	m.sounds.Clear()
	m.fonts.Clear()
}
