// Package font parses TrueType files for the asset cache.
package font

import (
	"fmt"
	"io/fs"
	"os"

	"game-assets/internal/assetcache"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// DefaultFallback is decoded in place of fonts that fail to load.
const DefaultFallback = "invalid.ttf"

// Extensions are the file extensions preloaded as fonts.
var Extensions = []string{"ttf"}

// Font is a parsed font file.
type Font struct {
	Path   string
	parsed *opentype.Font
	size   int64
}

// Family returns the font family name, or "" if the file has none.
func (f *Font) Family() string {
	if f.parsed == nil {
		return ""
	}
	name, err := f.parsed.Name(&sfnt.Buffer{}, sfnt.NameIDFamily)
	if err != nil {
		return ""
	}
	return name
}

// NumGlyphs returns the number of glyphs in the font.
func (f *Font) NumGlyphs() int {
	if f.parsed == nil {
		return 0
	}
	return f.parsed.NumGlyphs()
}

// Face returns a face rasterizing the font at size points and 72 DPI.
// The caller must close it.
func (f *Font) Face(size float64) (xfont.Face, error) {
	if f.parsed == nil {
		return nil, fmt.Errorf("font: %s has been released", f.Path)
	}
	return opentype.NewFace(f.parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: xfont.HintingFull,
	})
}

// Bytes returns the size of the font file the font was parsed from.
func (f *Font) Bytes() int64 {
	if f.parsed == nil {
		return 0
	}
	return f.size
}

// Release drops the parsed font.
func (f *Font) Release() {
	f.parsed = nil
}

// Load reads a font file from the host filesystem.
func Load(path string) (*Font, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("font: read %s: %w", path, err)
	}
	return parse(path, raw)
}

// LoadFS reads a font file from fsys.
func LoadFS(fsys fs.FS, path string) (*Font, error) {
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("font: read %s: %w", path, err)
	}
	return parse(path, raw)
}

func parse(path string, raw []byte) (*Font, error) {
	f, err := opentype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("font: parse %s: %w", path, err)
	}
	return &Font{Path: path, parsed: f, size: int64(len(raw))}, nil
}

// Kind returns the font asset kind. A nil fsys reads the host filesystem.
func Kind(fsys fs.FS) assetcache.Kind[*Font] {
	decode := Load
	if fsys != nil {
		decode = func(path string) (*Font, error) { return LoadFS(fsys, path) }
	}
	return assetcache.Kind[*Font]{
		Name:       "font",
		Extensions: Extensions,
		Fallback:   DefaultFallback,
		Decode:     decode,
	}
}

// Cache is the font instantiation of the asset cache.
type Cache = assetcache.Cache[*Font]

// NewCache creates an empty font cache.
func NewCache(fsys fs.FS, opts ...assetcache.Option) *Cache {
	return assetcache.New(Kind(fsys), opts...)
}
