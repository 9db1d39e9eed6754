// Package sound decodes WAV files into PCM sample buffers for the asset cache.
package sound

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"game-assets/internal/assetcache"

	"github.com/go-audio/wav"
)

// DefaultFallback is decoded in place of sounds that fail to load.
const DefaultFallback = "invalid.wav"

// Extensions are the file extensions preloaded as sounds.
var Extensions = []string{"wav"}

var errNotWAV = errors.New("not a valid WAV file")

// Buffer holds decoded PCM samples, interleaved by channel.
type Buffer struct {
	Path       string
	SampleRate int
	Channels   int
	BitDepth   int
	Samples    []int
}

// Frames returns the number of sample frames (samples per channel).
func (b *Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the playback length.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate == 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Bytes returns the size of the PCM data at its source bit depth.
func (b *Buffer) Bytes() int64 {
	return int64(len(b.Samples)) * int64(b.BitDepth/8)
}

// Release drops the sample data.
func (b *Buffer) Release() {
	b.Samples = nil
}

// Load reads a WAV file from the host filesystem.
func Load(path string) (*Buffer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sound: read %s: %w", path, err)
	}
	return decode(path, raw)
}

// LoadFS reads a WAV file from fsys.
func LoadFS(fsys fs.FS, path string) (*Buffer, error) {
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("sound: read %s: %w", path, err)
	}
	return decode(path, raw)
}

func decode(path string, raw []byte) (*Buffer, error) {
	d := wav.NewDecoder(bytes.NewReader(raw))
	if !d.IsValidFile() {
		return nil, fmt.Errorf("sound: decode %s: %w", path, errNotWAV)
	}

	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("sound: decode %s: %w", path, err)
	}

	return &Buffer{
		Path:       path,
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		Samples:    pcm.Data,
	}, nil
}

// Kind returns the sound asset kind. A nil fsys reads the host filesystem.
func Kind(fsys fs.FS) assetcache.Kind[*Buffer] {
	decode := Load
	if fsys != nil {
		decode = func(path string) (*Buffer, error) { return LoadFS(fsys, path) }
	}
	return assetcache.Kind[*Buffer]{
		Name:       "sound",
		Extensions: Extensions,
		Fallback:   DefaultFallback,
		Decode:     decode,
	}
}

// Cache is the sound instantiation of the asset cache.
type Cache = assetcache.Cache[*Buffer]

// NewCache creates an empty sound cache.
func NewCache(fsys fs.FS, opts ...assetcache.Option) *Cache {
	return assetcache.New(Kind(fsys), opts...)
}
