// Package export writes the contents of a texture cache to disk as WebP
// thumbnails with a JSON manifest, for inspecting what a game actually loaded.
package export

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"game-assets/internal/texture"

	"github.com/HugoSmits86/nativewebp"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"lukechampine.com/blake3"
)

// ManifestName is the manifest file written next to the thumbnails.
const ManifestName = "manifest.json"

// Config holds the settings of one export run.
type Config struct {
	OutputDir string
	Size      int // longest thumbnail side in pixels
	Workers   int
}

// ManifestEntry describes one exported texture.
type ManifestEntry struct {
	Key         string `json:"key"`
	Image       string `json:"image"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Substituted bool   `json:"substituted"`
	Fingerprint string `json:"fingerprint"` // blake3 of the decoded pixels
}

// Result holds the outcome of exporting one texture.
type Result struct {
	Key     string
	Entry   ManifestEntry
	Success bool
	Error   string
}

// Textures exports every texture currently in cache. The cache must not be
// cleared while the export runs.
func Textures(cfg Config, cache *texture.Cache) ([]Result, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	keys := cache.Keys()
	total := len(keys)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					logrus.Infof("Exported %d/%d textures (%.1f/sec)", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	work := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = exportOne(cfg, cache, idx, keys[idx])
				processed.Add(1)
			}
		}()
	}
	for i := range keys {
		work <- i
	}
	close(work)
	wg.Wait()
	close(done)

	var entries []ManifestEntry
	for _, r := range results {
		if r.Success {
			entries = append(entries, r.Entry)
		}
	}
	if err := WriteManifest(filepath.Join(cfg.OutputDir, ManifestName), entries); err != nil {
		return results, fmt.Errorf("export: manifest: %w", err)
	}
	return results, nil
}

func exportOne(cfg Config, cache *texture.Cache, idx int, key string) Result {
	tex, ok := cache.Peek(key)
	if !ok || tex.Image == nil {
		return Result{Key: key, Error: "texture no longer cached"}
	}

	name := fmt.Sprintf("%04d.webp", idx)
	if err := writeImage(filepath.Join(cfg.OutputDir, name), Thumbnail(tex.Image, cfg.Size), encodeWebP); err != nil {
		return Result{Key: key, Error: err.Error()}
	}

	sum := blake3.Sum256(tex.Image.Pix)
	return Result{
		Key: key,
		Entry: ManifestEntry{
			Key:         key,
			Image:       name,
			Width:       tex.Width(),
			Height:      tex.Height(),
			Substituted: cache.Substituted(key),
			Fingerprint: hex.EncodeToString(sum[:16]),
		},
		Success: true,
	}
}

func encodeWebP(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("WebP encode: %w", err)
	}
	return nil
}

// writeImage encodes img to path. The file is removed if encoding or closing
// fails, so no partial image is left behind.
func writeImage(path string, img image.Image, encode func(io.Writer, image.Image) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	return encode(f, img)
}

// Thumbnail scales src down so its longest side is size, keeping the aspect
// ratio. Images already small enough are returned unchanged.
func Thumbnail(src *image.NRGBA, size int) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= size && h <= size {
		return src
	}
	if w >= h {
		w, h = size, max(1, h*size/w)
	} else {
		w, h = max(1, w*size/h), size
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// WriteManifest writes the manifest entries as indented JSON.
func WriteManifest(path string, entries []ManifestEntry) error {
	if entries == nil {
		entries = []ManifestEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
