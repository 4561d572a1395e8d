// Package testutils holds fixtures shared by the degyb test suites: template
// trees on disk, a stand-in gyb expander, and configurations pointing at
// them.
package testutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/conneroisu/degyb/internal/config"
	"github.com/stretchr/testify/require"
)

// FakeExpanderScript behaves like gyb for the argument shapes degyb uses. It
// copies the template to the -o path, replacing @TAG@ with the EMIT_KIND
// define. Templates containing EXPAND_FAIL make it exit non-zero and
// templates containing EXPAND_SLEEP make it hang. Every invocation is
// appended to a log file next to the script.
const FakeExpanderScript = `#!/bin/sh
in="$1"; shift
out=""; tag=""
while [ $# -gt 0 ]; do
	case "$1" in
		-o) out="$2"; shift 2 ;;
		-DEMIT_KIND=*) tag="${1#-DEMIT_KIND=}"; shift ;;
		*) shift ;;
	esac
done
echo "$in $tag" >> "$0.log"
if grep -q EXPAND_FAIL "$in"; then
	echo "expansion failed for $in" >&2
	exit 1
fi
if grep -q EXPAND_SLEEP "$in"; then
	exec sleep 30
fi
sed "s/@TAG@/$tag/g" "$in" > "$out"
`

// TagTemplateName is the tag template used by CreateTemplateTree callers.
const TagTemplateName = "Fluent.swift.gyb.template"

// CreateTempProject creates a project with an empty template root and a
// stand-in expander, returning the project directory.
func CreateTempProject(t *testing.T) string {
	tempDir := t.TempDir()

	dirs := []string{
		"Sources/App",
		"utils",
	}

	for _, dir := range dirs {
		err := os.MkdirAll(filepath.Join(tempDir, dir), 0755)
		require.NoError(t, err)
	}

	WriteFakeExpander(t, filepath.Join(tempDir, "utils"))

	return tempDir
}

// WriteFakeExpander installs FakeExpanderScript as dir/gyb and returns its
// path.
func WriteFakeExpander(t *testing.T, dir string) string {
	path := filepath.Join(dir, "gyb")
	err := os.WriteFile(path, []byte(FakeExpanderScript), 0755)
	require.NoError(t, err)
	return path
}

// ExpanderInvocations returns the "template tag" lines logged by the fake
// expander at path, in call order.
func ExpanderInvocations(t *testing.T, path string) []string {
	content, err := os.ReadFile(path + ".log")
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	return lines
}

// ResetInvocations clears the invocation log of the fake expander at path.
func ResetInvocations(t *testing.T, path string) {
	err := os.Remove(path + ".log")
	if err != nil && !os.IsNotExist(err) {
		require.NoError(t, err)
	}
}

// CreateTemplate writes a template file below dir.
func CreateTemplate(t *testing.T, dir, name, content string) string {
	templatePath := filepath.Join(dir, filepath.FromSlash(name))
	err := os.MkdirAll(filepath.Dir(templatePath), 0755)
	require.NoError(t, err)
	err = os.WriteFile(templatePath, []byte(content), 0644)
	require.NoError(t, err)
	return templatePath
}

// CreateTemplateTree writes every name/content pair below dir.
func CreateTemplateTree(t *testing.T, dir string, files map[string]string) {
	for name, content := range files {
		CreateTemplate(t, dir, name, content)
	}
}

// CreateTestConfig creates a configuration for projectDir that uses the fake
// expander and native promotion.
func CreateTestConfig(projectDir string, tags ...string) *config.Config {
	if tags == nil {
		tags = []string{"Blog", "User"}
	}

	return &config.Config{
		LogLevel:  "debug",
		LogFormat: "json",
		Templates: config.TemplatesConfig{
			Root:      filepath.Join(projectDir, "Sources", "App"),
			Suffix:    ".gyb",
			TagSuffix: ".gyb.template",
		},
		Destination: config.DestinationConfig{
			Path:      filepath.Join(projectDir, "Sources", "App", "gyb"),
			TagDir:    "Models",
			Extension: ".swift",
		},
		Tags: tags,
		Expander: config.ExpanderConfig{
			Path:      filepath.Join(projectDir, "utils", "gyb"),
			TagDefine: "EMIT_KIND",
			Timeout:   10 * time.Second,
		},
		Promoter: config.PromoterNative,
		Toolchain: config.ToolchainConfig{
			Path:          "/usr",
			PackagePath:   projectDir,
			PackageName:   "swift-website-server",
			Product:       "Run",
			TestProduct:   "swift-website-serverPackageTests",
			TestDiscovery: config.TestDiscoveryAuto,
		},
	}
}

// AssertFilePermissions checks that files have the expected permissions
func AssertFilePermissions(t *testing.T, path string, expectedMode os.FileMode) {
	info, err := os.Stat(path)
	require.NoError(t, err)

	actualMode := info.Mode()
	require.Equal(t, expectedMode, actualMode&os.FileMode(0777),
		"File %s has incorrect permissions: got %o, want %o",
		path, actualMode&os.FileMode(0777), expectedMode)
}

// ModTime returns the modification time of path.
func ModTime(t *testing.T, path string) time.Time {
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.ModTime()
}

// Backdate sets the modification time of path an hour into the past so that
// later rewrites are observable even on coarse-grained filesystems.
func Backdate(t *testing.T, path string) time.Time {
	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, past, past))
	return past
}

// WaitForFileChange waits for a file to be modified (useful for testing file watchers)
func WaitForFileChange(
	t *testing.T,
	filePath string,
	originalModTime time.Time,
	timeout time.Duration,
) {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		info, err := os.Stat(filePath)
		if err == nil && info.ModTime().After(originalModTime) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("File %s was not modified within %v", filePath, timeout)
}
