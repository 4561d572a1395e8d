package treediff

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, fs afero.Fs, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, root+"/"+name, []byte(content), 0644))
	}
}

func TestCompareIdentical(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{"A.swift": "a\n", "Models/Blog.swift": "blog\n"}
	writeTree(t, fs, "/generated", files)
	writeTree(t, fs, "/committed", files)

	diffs, err := NewComparer(fs).Compare("/generated", "/committed")
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestCompareDifferences(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, "/generated", map[string]string{
		"A.swift":           "a\n",
		"B.swift":           "line1\nline2 new\nline3\n",
		"Models/User.swift": "user\n",
	})
	writeTree(t, fs, "/committed", map[string]string{
		"A.swift":           "a\n",
		"B.swift":           "line1\nline2\nline3\n",
		"Models/Blog.swift": "blog\n",
	})

	diffs, err := NewComparer(fs).Compare("/generated", "/committed")
	require.NoError(t, err)
	require.Len(t, diffs, 3)

	assert.Equal(t, "B.swift", diffs[0].Path)
	assert.Equal(t, ContentDiffers, diffs[0].Status)
	assert.Contains(t, diffs[0].Diff, "--- a/B.swift")
	assert.Contains(t, diffs[0].Diff, "+++ b/B.swift")
	assert.Contains(t, diffs[0].Diff, "-line2\n")
	assert.Contains(t, diffs[0].Diff, "+line2 new\n")
	assert.NotContains(t, diffs[0].Diff, " line1", "zero context lines")

	assert.Equal(t, Difference{Path: "Models/Blog.swift", Status: OnlyInCommitted}, diffs[1])
	assert.Equal(t, Difference{Path: "Models/User.swift", Status: OnlyInGenerated}, diffs[2])

	report := Render(diffs)
	assert.Contains(t, report, "modified: B.swift\n")
	assert.Contains(t, report, "stale: Models/Blog.swift\n")
	assert.Contains(t, report, "missing: Models/User.swift\n")
}

func TestCompareIgnoresHidden(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, "/generated", map[string]string{"A.swift": "a"})
	writeTree(t, fs, "/committed", map[string]string{
		"A.swift":          "a",
		".DS_Store":        "junk",
		".build/cache.bin": "junk",
	})

	diffs, err := NewComparer(fs).Compare("/generated", "/committed")
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestCompareMissingCommittedTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, "/generated", map[string]string{"A.swift": "a"})

	diffs, err := NewComparer(fs).Compare("/generated", "/committed")
	require.NoError(t, err)
	assert.Equal(t, []Difference{{Path: "A.swift", Status: OnlyInGenerated}}, diffs)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "missing", OnlyInGenerated.String())
	assert.Equal(t, "stale", OnlyInCommitted.String())
	assert.Equal(t, "modified", ContentDiffers.String())
	assert.Equal(t, "unknown", Status(9).String())
}
