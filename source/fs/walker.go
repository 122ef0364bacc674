// Package fs lists the files a build feeds into the pipeline.
package fs

import (
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Walker scans roots for files, skipping dependency and VCS directories.
type Walker struct {
	ignored map[string]bool
	exclude []string
}

func NewWalker(exclude ...string) *Walker {
	return &Walker{
		ignored: map[string]bool{".git": true, "node_modules": true, ".next": true, "dist": true},
		exclude: exclude,
	}
}

// Files returns every regular file under the given roots (a root may also
// be a single file), sorted and de-duplicated so builds are deterministic.
func (w *Walker) Files(roots ...string) ([]string, error) {
	seen := map[string]bool{}
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			seen[filepath.Clean(root)] = true
			continue
		}
		err = filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && (w.ignored[d.Name()] || w.excluded(path)) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && !w.excluded(path) {
				seen[path] = true
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func (w *Walker) excluded(path string) bool {
	for _, ex := range w.exclude {
		if ok, _ := filepath.Match(ex, filepath.Base(path)); ok {
			return true
		}
		if ok, _ := filepath.Match(ex, path); ok {
			return true
		}
		if filepath.Clean(ex) == filepath.Clean(path) {
			return true
		}
	}
	return false
}
