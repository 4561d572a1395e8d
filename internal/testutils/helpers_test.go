package testutils

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTempProject(t *testing.T) {
	projectDir := CreateTempProject(t)

	assert.DirExists(t, filepath.Join(projectDir, "Sources", "App"))
	AssertFilePermissions(t, filepath.Join(projectDir, "utils", "gyb"), 0755)
}

func TestCreateTemplateTree(t *testing.T) {
	dir := t.TempDir()
	CreateTemplateTree(t, dir, map[string]string{
		"A.swift.gyb":        "a",
		"nested/B.swift.gyb": "b",
	})

	content, err := os.ReadFile(filepath.Join(dir, "nested", "B.swift.gyb"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(content))
}

func TestCreateTestConfig(t *testing.T) {
	projectDir := CreateTempProject(t)

	cfg := CreateTestConfig(projectDir)
	assert.Equal(t, []string{"Blog", "User"}, cfg.Tags)
	assert.Equal(t, filepath.Join(projectDir, "utils", "gyb"), cfg.Expander.Path)
	assert.Empty(t, cfg.Expander.Interpreter)

	cfg = CreateTestConfig(projectDir, "Skill")
	assert.Equal(t, []string{"Skill"}, cfg.Tags)
}

func TestFakeExpander(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	projectDir := CreateTempProject(t)
	expander := filepath.Join(projectDir, "utils", "gyb")
	tmpl := CreateTemplate(t, projectDir, "Fluent.swift.gyb.template", "final class @TAG@ {}\n")
	out := filepath.Join(projectDir, "Blog.swift")

	cmd := exec.Command(expander, tmpl, "-o", out, "--line-directive=", "-DEMIT_KIND=Blog")
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, string(output))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "final class Blog {}\n", string(content))
	assert.Equal(t, []string{tmpl + " Blog"}, ExpanderInvocations(t, expander))

	failing := CreateTemplate(t, projectDir, "Broken.swift.gyb", "EXPAND_FAIL\n")
	output, err = exec.Command(expander, failing, "-o", out).CombinedOutput()
	require.Error(t, err)
	assert.Contains(t, string(output), "expansion failed")

	ResetInvocations(t, expander)
	assert.Empty(t, ExpanderInvocations(t, expander))
}

func TestBackdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	past := Backdate(t, path)
	assert.True(t, ModTime(t, path).Equal(past))
}

func TestWaitForFileChange(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "test.txt")

	err := os.WriteFile(testFile, []byte("initial"), 0644)
	require.NoError(t, err)

	originalModTime := Backdate(t, testFile)

	go func() {
		time.Sleep(50 * time.Millisecond)
		os.WriteFile(testFile, []byte("modified"), 0644)
	}()

	WaitForFileChange(t, testFile, originalModTime, 2*time.Second)

	content, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, "modified", string(content))
}
