// Package texture decodes image files into NRGBA textures for the asset cache.
package texture

import (
	"image"
	"io/fs"

	"game-assets/internal/assetcache"
)

// DefaultFallback is decoded in place of textures that fail to load.
const DefaultFallback = "invalid.png"

// Extensions are the file extensions preloaded as textures.
var Extensions = []string{"png", "jpg", "jpeg"}

// Texture is a decoded image held by the texture cache.
type Texture struct {
	Path  string // file the pixels came from
	Image *image.NRGBA
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int {
	if t.Image == nil {
		return 0
	}
	return t.Image.Rect.Dx()
}

// Height returns the texture height in pixels.
func (t *Texture) Height() int {
	if t.Image == nil {
		return 0
	}
	return t.Image.Rect.Dy()
}

// Bytes returns the size of the pixel buffer.
func (t *Texture) Bytes() int64 {
	if t.Image == nil {
		return 0
	}
	return int64(len(t.Image.Pix))
}

// Release drops the pixel buffer.
func (t *Texture) Release() {
	t.Image = nil
}

// Kind returns the texture asset kind. A nil fsys reads the host filesystem.
func Kind(fsys fs.FS) assetcache.Kind[*Texture] {
	decode := Load
	if fsys != nil {
		decode = func(path string) (*Texture, error) { return LoadFS(fsys, path) }
	}
	return assetcache.Kind[*Texture]{
		Name:       "texture",
		Extensions: Extensions,
		Fallback:   DefaultFallback,
		Decode:     decode,
	}
}

// Cache is the texture instantiation of the asset cache.
type Cache = assetcache.Cache[*Texture]

// NewCache creates an empty texture cache.
func NewCache(fsys fs.FS, opts ...assetcache.Option) *Cache {
	return assetcache.New(Kind(fsys), opts...)
}
