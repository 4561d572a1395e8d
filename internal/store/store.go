// Package store implements the destination store: the directory of generated
// files that downstream builds read and that only the regeneration engine
// writes.
package store

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
)

// FileMode is the permission generated files are promoted with.
const FileMode os.FileMode = 0644

// Store is a directory tree keyed by slash separated names relative to its
// root.
type Store struct {
	fs   afero.Fs
	root string
}

// New creates a store rooted at root on fs.
func New(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: filepath.Clean(root)}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Fs returns the filesystem the store lives on.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Path maps a store name to its location on the filesystem.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Ensure creates the root and the given subdirectories if they are missing.
func (s *Store) Ensure(dirs ...string) error {
	if err := s.fs.MkdirAll(s.root, 0755); err != nil {
		return eris.Wrapf(err, "failed to create destination %s", s.root)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := s.fs.MkdirAll(s.Path(dir), 0755); err != nil {
			return eris.Wrapf(err, "failed to create destination directory %s", s.Path(dir))
		}
	}
	return nil
}

// EnsureParent creates the directory that will hold name.
func (s *Store) EnsureParent(name string) error {
	dir := filepath.Dir(s.Path(name))
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return eris.Wrapf(err, "failed to create directory %s", dir)
	}
	return nil
}

// Read returns the content stored under name.
func (s *Store) Read(name string) ([]byte, error) {
	return afero.ReadFile(s.fs, s.Path(name))
}

// Promote stores content under name unless the stored bytes are already
// identical, in which case the file and its modification time are left
// alone. The new content is written to a hidden temporary file in the target
// directory and renamed into place, so readers see either the old or the new
// file, never a partial one.
func (s *Store) Promote(name string, content []byte) (bool, error) {
	target := s.Path(name)

	existing, err := afero.ReadFile(s.fs, target)
	switch {
	case err == nil:
		if bytes.Equal(existing, content) {
			return false, nil
		}
	case !os.IsNotExist(err):
		return false, eris.Wrapf(err, "failed to read %s", target)
	}

	if err := s.EnsureParent(name); err != nil {
		return false, err
	}

	dir, base := filepath.Split(target)
	tmp, err := afero.TempFile(s.fs, dir, "."+base+".tmp-")
	if err != nil {
		return false, eris.Wrapf(err, "failed to create temporary file for %s", target)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = s.fs.Remove(tmpName)
	}

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		cleanup()
		return false, eris.Wrapf(err, "failed to write %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return false, eris.Wrapf(err, "failed to sync %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return false, eris.Wrapf(err, "failed to close %s", tmpName)
	}
	if err := s.fs.Chmod(tmpName, FileMode); err != nil {
		cleanup()
		return false, eris.Wrapf(err, "failed to set permissions on %s", tmpName)
	}
	if err := s.fs.Rename(tmpName, target); err != nil {
		cleanup()
		return false, eris.Wrapf(err, "failed to move %s into place", target)
	}

	return true, nil
}

// List returns the names of the regular files below dir whose name ends in
// ext, sorted. Hidden entries are ignored. A missing dir yields no names.
func (s *Store) List(dir, ext string, recursive bool) ([]string, error) {
	base := s.Path(dir)

	var names []string
	err := afero.Walk(s.fs, base, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == base {
				return filepath.SkipDir
			}
			return err
		}
		if p == base {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			if !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || !strings.HasSuffix(info.Name(), ext) {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && err != filepath.SkipDir {
		return nil, eris.Wrapf(err, "failed to list %s", base)
	}

	sort.Strings(names)
	return names, nil
}

// Remove deletes the file stored under name. Removing a missing file is not
// an error.
func (s *Store) Remove(name string) error {
	if err := s.fs.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "failed to remove %s", s.Path(name))
	}
	return nil
}

// Join builds a store name from slash separated parts.
func Join(parts ...string) string {
	return path.Join(parts...)
}
