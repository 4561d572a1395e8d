package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/conneroisu/degyb/internal/regen"
	"github.com/conneroisu/degyb/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// passRecorder collects what OnPass receives.
type passRecorder struct {
	mu       sync.Mutex
	reports  []*regen.Report
	failures []error
}

func (r *passRecorder) onPass(report *regen.Report, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.failures = append(r.failures, err)
		return
	}
	r.reports = append(r.reports, report)
}

// wrote reports whether a successful pass wrote name.
func (r *passRecorder) wrote(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, report := range r.reports {
		for _, written := range report.Written {
			if written == name {
				return true
			}
		}
	}
	return false
}

func (r *passRecorder) snapshot() (int, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports), append([]error(nil), r.failures...)
}

func startWatch(t *testing.T, service *BuildService, rec *passRecorder) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewWatchService(service.Engine(), nil).Watch(ctx, WatchOptions{
			Debounce: 50 * time.Millisecond,
			OnPass:   rec.onPass,
		})
	}()
	return cancel, done
}

func waitStopped(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchService_RegeneratesOnChange(t *testing.T) {
	cfg, _ := newProject(t)
	service := newService(t, cfg, os.Environ())

	rec := &passRecorder{}
	cancel, done := startWatch(t, service, rec)
	defer cancel()

	require.Eventually(t, func() bool { return rec.wrote("Routes.swift") }, 5*time.Second, 20*time.Millisecond)

	testutils.CreateTemplate(t, cfg.Templates.Root, "Added.swift.gyb", "added\n")

	// Wait for the pass that wrote the new output to finish, not merely for
	// the file to appear, so cancelling cannot interrupt it.
	require.Eventually(t, func() bool { return rec.wrote("Added.swift") }, 5*time.Second, 20*time.Millisecond)
	assert.FileExists(t, filepath.Join(cfg.Destination.Path, "Added.swift"))

	cancel()
	waitStopped(t, done)

	passes, failures := rec.snapshot()
	assert.GreaterOrEqual(t, passes, 2)
	assert.Empty(t, failures)
}

func TestWatchService_ShutdownDuringPassIsNotAFailure(t *testing.T) {
	cfg, _ := newProject(t)
	testutils.CreateTemplate(t, cfg.Templates.Root, "Slow.swift.gyb", "EXPAND_SLEEP\n")
	service := newService(t, cfg, os.Environ())

	rec := &passRecorder{}
	cancel, done := startWatch(t, service, rec)

	// Let the initial pass reach the sleeping expansion.
	time.Sleep(300 * time.Millisecond)
	cancel()
	waitStopped(t, done)

	passes, failures := rec.snapshot()
	assert.Zero(t, passes)
	assert.Empty(t, failures, "an interrupted pass is not reported as failed")

	state, err := service.Engine().State()
	assert.Equal(t, regen.StateFailed, state)
	assert.Error(t, err)
}
