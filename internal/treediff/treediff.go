// Package treediff compares two directory trees by content, the way
// `diff -r -x '.*'` does, and renders what differs.
package treediff

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
)

// Status describes how a path differs between the two trees.
type Status int

const (
	// OnlyInGenerated marks a file regeneration would create.
	OnlyInGenerated Status = iota
	// OnlyInCommitted marks a file regeneration would delete.
	OnlyInCommitted
	// ContentDiffers marks a file regeneration would rewrite.
	ContentDiffers
)

// String returns the string representation of the Status
func (s Status) String() string {
	switch s {
	case OnlyInGenerated:
		return "missing"
	case OnlyInCommitted:
		return "stale"
	case ContentDiffers:
		return "modified"
	default:
		return "unknown"
	}
}

// Difference is one path that is not identical in both trees.
type Difference struct {
	// Path is slash separated and relative to the tree roots.
	Path   string
	Status Status
	// Diff is a zero-context unified diff from committed to generated,
	// only set for ContentDiffers.
	Diff string
}

// Comparer compares trees on a filesystem.
type Comparer struct {
	fs afero.Fs
}

// NewComparer creates a comparer over fs.
func NewComparer(fs afero.Fs) *Comparer {
	return &Comparer{fs: fs}
}

// Compare walks both trees on the OS filesystem. See Comparer.Compare.
func Compare(generated, committed string) ([]Difference, error) {
	return NewComparer(afero.NewOsFs()).Compare(generated, committed)
}

// Compare returns the differences between the generated and committed trees,
// sorted by path. Hidden files and directories are ignored on both sides. A
// missing committed tree compares as empty.
func (c *Comparer) Compare(generated, committed string) ([]Difference, error) {
	generatedFiles, err := c.files(generated)
	if err != nil {
		return nil, err
	}
	committedFiles, err := c.files(committed)
	if err != nil {
		return nil, err
	}

	var diffs []Difference

	for name := range generatedFiles {
		if !committedFiles[name] {
			diffs = append(diffs, Difference{Path: name, Status: OnlyInGenerated})
			continue
		}

		want, err := afero.ReadFile(c.fs, filepath.Join(generated, filepath.FromSlash(name)))
		if err != nil {
			return nil, eris.Wrapf(err, "failed to read generated %s", name)
		}
		have, err := afero.ReadFile(c.fs, filepath.Join(committed, filepath.FromSlash(name)))
		if err != nil {
			return nil, eris.Wrapf(err, "failed to read committed %s", name)
		}
		if bytes.Equal(want, have) {
			continue
		}

		diffs = append(diffs, Difference{
			Path:   name,
			Status: ContentDiffers,
			Diff:   unified(name, have, want),
		})
	}

	for name := range committedFiles {
		if !generatedFiles[name] {
			diffs = append(diffs, Difference{Path: name, Status: OnlyInCommitted})
		}
	}

	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Path < diffs[j].Path })

	return diffs, nil
}

// files lists the regular files below root as slash separated relative
// names.
func (c *Comparer) files(root string) (map[string]bool, error) {
	files := make(map[string]bool)

	err := afero.Walk(c.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return filepath.SkipDir
			}
			return err
		}
		if p == root {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = true
		return nil
	})
	if err != nil && err != filepath.SkipDir {
		return nil, eris.Wrapf(err, "failed to walk %s", root)
	}

	return files, nil
}

func unified(name string, committed, generated []byte) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(committed)),
		B:        difflib.SplitLines(string(generated)),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  0,
	})
	if err != nil {
		return fmt.Sprintf("%s differs\n", name)
	}
	return text
}

// Render formats differences as a report, one header line per path followed
// by its diff.
func Render(diffs []Difference) string {
	var b strings.Builder
	for _, d := range diffs {
		fmt.Fprintf(&b, "%s: %s\n", d.Status, d.Path)
		if d.Diff != "" {
			b.WriteString(d.Diff)
			if !strings.HasSuffix(d.Diff, "\n") {
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}
