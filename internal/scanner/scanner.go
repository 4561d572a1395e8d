// Package scanner provides template discovery for gyb templates.
//
// The scanner walks a template root, either one level deep or recursively,
// and classifies every file by suffix: plain templates expand to exactly one
// output named after the template with its suffix stripped, tag templates
// expand once per configured tag. Hidden files and directories are skipped.
// Results are sorted so that a pass always processes templates in the same
// order.
package scanner

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
)

// Kind distinguishes plain templates from tag templates.
type Kind int

const (
	KindPlain Kind = iota
	KindTagged
)

// String returns the string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindTagged:
		return "tagged"
	default:
		return "unknown"
	}
}

// Template identifies one input template discovered during a scan.
type Template struct {
	// Path is the template's location on disk.
	Path string
	// Name is the slash separated path relative to the template root.
	Name string
	// Output is Name with the recognized suffix stripped. For plain templates
	// it is the key of the generated file in the destination store.
	Output string
	Kind   Kind
}

// Options controls which files count as templates.
type Options struct {
	Suffix    string
	TagSuffix string
	Recursive bool
	// Skip lists directories that are never descended into, typically the
	// destination when it lives below the template root.
	Skip []string
}

// Result holds the templates found by a scan, each list sorted by Name.
type Result struct {
	Plain  []Template
	Tagged []Template
}

// Outputs returns the output names of all plain templates.
func (r *Result) Outputs() []string {
	outputs := make([]string, 0, len(r.Plain))
	for _, tmpl := range r.Plain {
		outputs = append(outputs, tmpl.Output)
	}
	return outputs
}

// TemplateScanner discovers templates on a filesystem.
type TemplateScanner struct {
	fs      afero.Fs
	options Options
}

// NewTemplateScanner creates a scanner over fs.
func NewTemplateScanner(fs afero.Fs, options Options) *TemplateScanner {
	return &TemplateScanner{fs: fs, options: options}
}

// Scan enumerates the templates below root.
func (s *TemplateScanner) Scan(root string) (*Result, error) {
	info, err := s.fs.Stat(root)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to stat template root %s", root)
	}
	if !info.IsDir() {
		return nil, eris.Errorf("template root %s is not a directory", root)
	}

	skip := make(map[string]bool, len(s.options.Skip))
	for _, dir := range s.options.Skip {
		skip[filepath.Clean(dir)] = true
	}

	result := &Result{}

	if !s.options.Recursive {
		entries, err := afero.ReadDir(s.fs, root)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to read template root %s", root)
		}
		for _, entry := range entries {
			if entry.IsDir() || isHidden(entry.Name()) {
				continue
			}
			s.classify(result, filepath.Join(root, entry.Name()), entry.Name())
		}
	} else {
		err = afero.Walk(s.fs, root, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if p == root {
				return nil
			}
			if info.IsDir() {
				if isHidden(info.Name()) || skip[filepath.Clean(p)] {
					return filepath.SkipDir
				}
				return nil
			}
			if isHidden(info.Name()) {
				return nil
			}

			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			s.classify(result, p, filepath.ToSlash(rel))
			return nil
		})
		if err != nil {
			return nil, eris.Wrapf(err, "failed to walk template root %s", root)
		}
	}

	sort.Slice(result.Plain, func(i, j int) bool { return result.Plain[i].Name < result.Plain[j].Name })
	sort.Slice(result.Tagged, func(i, j int) bool { return result.Tagged[i].Name < result.Tagged[j].Name })

	return result, nil
}

// classify appends the file to the matching list. The longer suffix is
// tested first so that overlapping suffixes resolve to the more specific one.
func (s *TemplateScanner) classify(result *Result, filePath, name string) {
	type candidate struct {
		suffix string
		kind   Kind
	}

	candidates := []candidate{
		{s.options.Suffix, KindPlain},
		{s.options.TagSuffix, KindTagged},
	}
	if len(s.options.TagSuffix) > len(s.options.Suffix) {
		candidates[0], candidates[1] = candidates[1], candidates[0]
	}

	base := path.Base(name)
	for _, c := range candidates {
		if c.suffix == "" || !strings.HasSuffix(base, c.suffix) || base == c.suffix {
			continue
		}

		tmpl := Template{
			Path:   filePath,
			Name:   name,
			Output: strings.TrimSuffix(name, c.suffix),
			Kind:   c.kind,
		}
		if c.kind == KindPlain {
			result.Plain = append(result.Plain, tmpl)
		} else {
			result.Tagged = append(result.Tagged, tmpl)
		}
		return
	}
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
