package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io/fs"
	"os"
	"strings"

	"game-assets/internal/assetcache"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// Load reads an image file from the host filesystem.
func Load(path string) (*Texture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}
	return decode(path, raw)
}

// LoadFS reads an image file from fsys.
func LoadFS(fsys fs.FS, path string) (*Texture, error) {
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}
	return decode(path, raw)
}

func decode(path string, raw []byte) (*Texture, error) {
	r := bytes.NewReader(raw)

	var (
		img image.Image
		err error
	)
	switch strings.ToLower(assetcache.Extension(path)) {
	case "png":
		img, err = png.Decode(r)
	case "jpg", "jpeg":
		img, err = jpeg.Decode(r)
	case "tga":
		img, err = tga.Decode(r)
	case "bmp":
		img, err = bmp.Decode(r)
	case "webp":
		img, err = webp.Decode(r)
	default:
		img, _, err = image.Decode(r)
	}
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", path, err)
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("texture: empty image: %s", path)
	}
	return &Texture{Path: path, Image: toNRGBA(img)}, nil
}

// toNRGBA converts any image to NRGBA format.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}
