package assetcache

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFS() fstest.MapFS {
	return fstest.MapFS{
		"a.png":     {Data: []byte("a")},
		"b.txt":     {Data: []byte("b")},
		"sub/c.jpg": {Data: []byte("c")},
	}
}

func TestPreload_NonRecursive(t *testing.T) {
	d := newFakeDecoder("a.png", "sub/c.jpg")
	c := newTestCache(d, WithLister(FSLister{FS: sampleFS()}))

	results, err := c.Preload(".", false)
	require.NoError(t, err)

	assert.Equal(t, []Result{{Path: "a.png"}}, results)
	assert.Equal(t, []string{"a.png"}, c.Keys())
	assert.Equal(t, 0, d.callCount("b.txt"))
}

func TestPreload_Recursive(t *testing.T) {
	d := newFakeDecoder("a.png", "sub/c.jpg")
	c := newTestCache(d, WithLister(FSLister{FS: sampleFS()}))

	_, err := c.Preload(".", true)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.png", "sub/c.jpg"}, c.Keys())
	assert.Equal(t, 0, d.callCount("b.txt"))

	// preloaded keys are hits for Resolve
	h, ok := c.Peek("sub/c.jpg")
	require.True(t, ok)
	assert.Same(t, h, c.Resolve("sub/c.jpg"))
	assert.Equal(t, 1, d.callCount("sub/c.jpg"))
}

func TestPreload_SkipsFailedDecodes(t *testing.T) {
	fsys := sampleFS()
	fsys["broken.png"] = &fstest.MapFile{Data: []byte("garbage")}
	d := newFakeDecoder("a.png", "sub/c.jpg", "invalid.png")
	c := newTestCache(d, WithLister(FSLister{FS: fsys}))

	results, err := c.Preload(".", true)
	require.NoError(t, err)

	var failed []string
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.Path)
		}
	}
	assert.Equal(t, []string{"broken.png"}, failed)
	assert.Equal(t, 2, c.Count())
	_, ok := c.Peek("broken.png")
	assert.False(t, ok)
	// no fallback substitution during preload
	assert.Equal(t, 0, d.callCount("invalid.png"))
}

func TestPreload_MissingDirectory(t *testing.T) {
	d := newFakeDecoder()
	c := newTestCache(d, WithLister(FSLister{FS: sampleFS()}))

	for _, recursive := range []bool{true, false} {
		t.Run(fmt.Sprintf("recursive=%v", recursive), func(t *testing.T) {
			results, err := c.Preload("nope", recursive)
			assert.Nil(t, results)
			assert.ErrorIs(t, err, fs.ErrNotExist)
		})
	}
}

func TestPreload_ReusesCachedKeys(t *testing.T) {
	d := newFakeDecoder("a.png", "sub/c.jpg")
	c := newTestCache(d, WithLister(FSLister{FS: sampleFS()}))

	h := c.Resolve("a.png")
	results, err := c.Preload(".", false)
	require.NoError(t, err)

	assert.Equal(t, []Result{{Path: "a.png", Reused: true}}, results)
	assert.Equal(t, 1, d.callCount("a.png"))
	assert.Same(t, h, c.Resolve("a.png"))
}

func TestPreload_ReplacesSubstitutedEntries(t *testing.T) {
	d := newFakeDecoder("invalid.png")
	c := newTestCache(d, WithLister(FSLister{FS: sampleFS()}))

	placeholder := c.Resolve("a.png")
	require.NotNil(t, placeholder)
	assert.Equal(t, "invalid.png", placeholder.path)
	assert.True(t, c.Substituted("a.png"))

	// the real file shows up later
	d.mu.Lock()
	d.valid["a.png"] = true
	d.mu.Unlock()

	results, err := c.Preload(".", false)
	require.NoError(t, err)
	assert.Equal(t, []Result{{Path: "a.png"}}, results)

	h := c.Resolve("a.png")
	assert.Equal(t, "a.png", h.path)
	assert.False(t, c.Substituted("a.png"))
	assert.Equal(t, 0, placeholder.releaseCount())

	c.Clear()
	assert.Equal(t, 1, placeholder.releaseCount())
	assert.Equal(t, 1, h.releaseCount())
}

func TestPreload_KeepsPlaceholderWhenStillBroken(t *testing.T) {
	d := newFakeDecoder("invalid.png")
	c := newTestCache(d, WithLister(FSLister{FS: sampleFS()}))

	placeholder := c.Resolve("a.png")
	results, err := c.Preload(".", false)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Same(t, placeholder, c.Resolve("a.png"))
	assert.True(t, c.Substituted("a.png"))
}

func TestPreload_Workers(t *testing.T) {
	fsys := fstest.MapFS{}
	var valid []string
	for i := 0; i < 50; i++ {
		name := fmt.Sprintf("tiles/t%02d.png", i)
		fsys[name] = &fstest.MapFile{Data: []byte{byte(i)}}
		valid = append(valid, name)
	}
	d := newFakeDecoder(valid...)
	c := newTestCache(d, WithLister(FSLister{FS: fsys}), WithWorkers(4))

	results, err := c.Preload("tiles", true)
	require.NoError(t, err)

	assert.Len(t, results, 50)
	assert.Equal(t, 50, c.Count())
	for i, r := range results {
		assert.Equal(t, valid[i], r.Path)
		assert.NoError(t, r.Err)
	}
}

func TestDirLister(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	for _, name := range []string{"a.png", "b.txt", filepath.Join("sub", "c.jpg")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	flat, err := DirLister{}.List(dir, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.txt"),
	}, flat)

	deep, err := DirLister{}.List(dir, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "sub", "c.jpg"),
	}, deep)

	_, err = DirLister{}.List(filepath.Join(dir, "missing"), true)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = DirLister{}.List(filepath.Join(dir, "missing"), false)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestPreload_HostFilesystem(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	a := filepath.Join(dir, "a.png")
	c := filepath.Join(dir, "sub", "c.jpg")
	for _, p := range []string{a, c, filepath.Join(dir, "b.txt")} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}

	d := newFakeDecoder(a, c)
	cache := newTestCache(d)

	_, err := cache.Preload(dir, true)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Count())
	_, ok := cache.Peek(c)
	assert.True(t, ok)
}
