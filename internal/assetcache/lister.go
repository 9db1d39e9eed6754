package assetcache

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// Lister enumerates the files under a directory.
type Lister interface {
	// List returns the paths of regular files under dir, descending into
	// subdirectories when recursive is set. A missing or unreadable dir is
	// an error.
	List(dir string, recursive bool) ([]string, error)
}

// DirLister lists the host filesystem. Returned paths are dir joined with
// the entry name by filepath.Join.
type DirLister struct{}

// List implements Lister.
func (DirLister) List(dir string, recursive bool) ([]string, error) {
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		var paths []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
		return paths, nil
	}

	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// FSLister lists an fs.FS. Paths are slash-separated and relative to the
// root of FS.
type FSLister struct {
	FS fs.FS
}

// List implements Lister.
func (l FSLister) List(dir string, recursive bool) ([]string, error) {
	if !recursive {
		entries, err := fs.ReadDir(l.FS, dir)
		if err != nil {
			return nil, err
		}
		var paths []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			paths = append(paths, path.Join(dir, e.Name()))
		}
		return paths, nil
	}

	var paths []string
	err := fs.WalkDir(l.FS, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
