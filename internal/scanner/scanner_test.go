package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultOptions() Options {
	return Options{Suffix: ".gyb", TagSuffix: ".gyb.template"}
}

func writeFiles(t *testing.T, fs afero.Fs, files ...string) {
	t.Helper()
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, f, []byte("// "+f), 0644))
	}
}

func TestScanClassifiesTemplates(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs,
		"/src/B.swift.gyb",
		"/src/A.swift.gyb",
		"/src/Fluent.swift.gyb.template",
		"/src/Routes.swift",
		"/src/.Hidden.swift.gyb",
		"/src/.gyb",
		"/src/nested/C.swift.gyb",
	)

	result, err := NewTemplateScanner(fs, defaultOptions()).Scan("/src")
	require.NoError(t, err)

	require.Len(t, result.Plain, 2)
	assert.Equal(t, "A.swift.gyb", result.Plain[0].Name)
	assert.Equal(t, "A.swift", result.Plain[0].Output)
	assert.Equal(t, filepath.Join("/src", "A.swift.gyb"), result.Plain[0].Path)
	assert.Equal(t, KindPlain, result.Plain[0].Kind)
	assert.Equal(t, "B.swift", result.Plain[1].Output)

	require.Len(t, result.Tagged, 1)
	assert.Equal(t, "Fluent.swift", result.Tagged[0].Output)
	assert.Equal(t, KindTagged, result.Tagged[0].Kind)

	assert.Equal(t, []string{"A.swift", "B.swift"}, result.Outputs())
}

func TestScanRecursive(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs,
		"/src/A.swift.gyb",
		"/src/nested/C.swift.gyb",
		"/src/.git/D.swift.gyb",
		"/src/gyb/E.swift.gyb",
	)

	opts := defaultOptions()
	opts.Recursive = true
	opts.Skip = []string{"/src/gyb"}

	result, err := NewTemplateScanner(fs, opts).Scan("/src")
	require.NoError(t, err)

	assert.Equal(t, []string{"A.swift", "nested/C.swift"}, result.Outputs())
}

func TestScanOverlappingSuffixes(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, "/src/A.swift.template", "/src/B.swift.gyb.template")

	result, err := NewTemplateScanner(fs, Options{Suffix: ".template", TagSuffix: ".gyb.template"}).Scan("/src")
	require.NoError(t, err)

	require.Len(t, result.Plain, 1)
	assert.Equal(t, "A.swift", result.Plain[0].Output)
	require.Len(t, result.Tagged, 1)
	assert.Equal(t, "B.swift", result.Tagged[0].Output)
}

func TestScanErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, "/file.gyb")

	_, err := NewTemplateScanner(fs, defaultOptions()).Scan("/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat template root /missing")
	assert.True(t, os.IsNotExist(eris.Cause(err)))

	_, err = NewTemplateScanner(fs, defaultOptions()).Scan("/file.gyb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template root /file.gyb is not a directory")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "plain", KindPlain.String())
	assert.Equal(t, "tagged", KindTagged.String())
	assert.Equal(t, "unknown", Kind(7).String())
}
