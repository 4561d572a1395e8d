//go:build integration
// +build integration

package integration_tests

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/conneroisu/degyb/internal/config"
	"github.com/conneroisu/degyb/internal/errors"
	"github.com/conneroisu/degyb/internal/regen"
	"github.com/conneroisu/degyb/internal/services"
	"github.com/conneroisu/degyb/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// workflow is a project driven through the same services the CLI uses.
type workflow struct {
	cfg     *config.Config
	service *services.BuildService
}

func newWorkflow(t *testing.T, promoter string, tags ...string) *workflow {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	projectDir := testutils.CreateTempProject(t)
	cfg := testutils.CreateTestConfig(projectDir, tags...)
	cfg.Promoter = promoter
	cfg.Destination.Protected = []string{"Legacy"}

	service, err := services.NewBuildService(cfg, os.Environ(), nil)
	require.NoError(t, err)

	return &workflow{cfg: cfg, service: service}
}

func (w *workflow) outputs(t *testing.T) []string {
	t.Helper()
	var names []string
	err := filepath.Walk(w.cfg.Destination.Path, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(w.cfg.Destination.Path, path)
		names = append(names, filepath.ToSlash(rel))
		return err
	})
	require.NoError(t, err)
	sort.Strings(names)
	return names
}

func TestRegenerationWorkflow(t *testing.T) {
	for _, promoter := range []string{config.PromoterNative, config.PromoterRsync} {
		t.Run(promoter, func(t *testing.T) {
			if promoter == config.PromoterRsync {
				if _, err := exec.LookPath("rsync"); err != nil {
					t.Skip("rsync not available")
				}
			}

			w := newWorkflow(t, promoter, "Blog", "User")
			ctx := context.Background()
			root := w.cfg.Templates.Root

			testutils.CreateTemplateTree(t, root, map[string]string{
				"A.swift.gyb":             "a\n",
				"B.swift.gyb":             "b\n",
				testutils.TagTemplateName: "final class @TAG@ {}\n",
			})

			// First pass writes everything.
			report, err := w.service.Generate(ctx)
			require.NoError(t, err)
			assert.Len(t, report.Written, 4)
			assert.Equal(t, []string{"A.swift", "B.swift", "Models/Blog.swift", "Models/User.swift"}, w.outputs(t))

			// Committed state verifies clean.
			_, err = w.service.Verify(ctx)
			require.NoError(t, err)

			// A protected output survives every sweep.
			legacy := filepath.Join(w.cfg.Destination.Path, "Models", "Legacy.swift")
			require.NoError(t, os.WriteFile(legacy, []byte("legacy\n"), 0644))

			// Editing one template rewrites exactly one output.
			blog := filepath.Join(w.cfg.Destination.Path, "Models", "Blog.swift")
			before := testutils.Backdate(t, blog)
			testutils.CreateTemplate(t, root, "A.swift.gyb", "a2\n")

			_, err = w.service.Verify(ctx)
			require.Error(t, err)
			assert.Contains(t, errors.AsFailure(err, "").Output, "modified: A.swift")

			report, err = w.service.Generate(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"A.swift"}, report.Written)
			assert.True(t, testutils.ModTime(t, blog).Equal(before))

			// Removing a template removes its output.
			require.NoError(t, os.Remove(filepath.Join(root, "B.swift.gyb")))
			report, err = w.service.Generate(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"B.swift"}, report.Removed)
			assert.Equal(t, []string{"A.swift", "Models/Blog.swift", "Models/Legacy.swift", "Models/User.swift"}, w.outputs(t))

			_, err = w.service.Verify(ctx)
			require.NoError(t, err)
		})
	}
}

func TestWatchWorkflow(t *testing.T) {
	w := newWorkflow(t, config.PromoterNative, "Blog")
	root := w.cfg.Templates.Root
	testutils.CreateTemplate(t, root, "A.swift.gyb", "a\n")

	var mu sync.Mutex
	var passes []*regen.Report

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go services.NewWatchService(w.service.Engine(), nil).Watch(ctx, services.WatchOptions{
		Debounce: 50 * time.Millisecond,
		OnPass: func(report *regen.Report, err error) {
			if err != nil {
				return
			}
			mu.Lock()
			passes = append(passes, report)
			mu.Unlock()
		},
	})

	output := filepath.Join(w.cfg.Destination.Path, "A.swift")
	require.Eventually(t, func() bool {
		content, err := os.ReadFile(output)
		return err == nil && string(content) == "a\n"
	}, 5*time.Second, 20*time.Millisecond)

	testutils.CreateTemplate(t, root, "A.swift.gyb", "changed\n")
	require.Eventually(t, func() bool {
		content, err := os.ReadFile(output)
		return err == nil && strings.TrimSpace(string(content)) == "changed"
	}, 5*time.Second, 20*time.Millisecond)

	testutils.CreateTemplate(t, root, testutils.TagTemplateName, "final class @TAG@ {}\n")
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(w.cfg.Destination.Path, "Models", "Blog.swift"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, len(passes), 3)
}
