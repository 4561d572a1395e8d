package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)
}

func TestFileWatcherAddFilterAndHandler(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.AddFilter(TemplateFilter(".gyb", ".gyb.template"))
	watcher.AddFilter(NoHiddenFilter)
	assert.Len(t, watcher.filters, 2)

	watcher.AddHandler(func(ctx context.Context, events []ChangeEvent) error { return nil })
	assert.Len(t, watcher.handlers, 1)
}

func TestFileWatcherAddPath(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NoError(t, watcher.AddPath(t.TempDir()))
	assert.Error(t, watcher.AddPath("/non/existent/path"))

	file := filepath.Join(t.TempDir(), "file.gyb")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	assert.Error(t, watcher.AddPath(file), "files are not watch roots")
}

func TestFilters(t *testing.T) {
	templates := TemplateFilter(".gyb", ".gyb.template")
	assert.True(t, templates("/src/Routes.swift.gyb"))
	assert.True(t, templates("/src/Fluent.swift.gyb.template"))
	assert.False(t, templates("/src/Routes.swift"))
	assert.False(t, TemplateFilter("")("/src/anything"))

	assert.True(t, NoHiddenFilter("/src/Routes.swift.gyb"))
	assert.False(t, NoHiddenFilter("/src/.Routes.swift.gyb.swp"))

	exclude := ExcludeDirFilter("/src/gyb")
	assert.False(t, exclude("/src/gyb/Routes.swift"))
	assert.False(t, exclude("/src/gyb/Models/Blog.swift"))
	assert.True(t, exclude("/src/gyb2/Routes.swift"))
	assert.True(t, exclude("/src/Routes.swift.gyb"))
}

func TestDebouncerCoalesces(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	d.addEvent(ChangeEvent{Type: EventTypeCreated, Path: "b.gyb"})
	d.addEvent(ChangeEvent{Type: EventTypeModified, Path: "a.gyb"})
	d.addEvent(ChangeEvent{Type: EventTypeModified, Path: "b.gyb"})

	select {
	case batch := <-d.Output():
		require.Len(t, batch, 2)
		assert.Equal(t, "a.gyb", batch[0].Path)
		assert.Equal(t, "b.gyb", batch[1].Path)
		assert.Equal(t, EventTypeModified, batch[1].Type, "last event per path wins")
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer did not flush")
	}

	select {
	case batch := <-d.Output():
		t.Fatalf("unexpected second batch: %v", batch)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestFileWatcherDeliversTemplateChanges(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "gyb")
	require.NoError(t, os.MkdirAll(dest, 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Sub"), 0755))

	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.AddFilter(TemplateFilter(".gyb", ".gyb.template"))
	watcher.AddFilter(NoHiddenFilter)
	watcher.AddFilter(ExcludeDirFilter(dest))

	var mu sync.Mutex
	var batches [][]ChangeEvent
	watcher.AddHandler(func(ctx context.Context, events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, events)
		return nil
	})

	require.NoError(t, watcher.AddRecursive(root, dest))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	// Ignored: output extension, destination, hidden.
	require.NoError(t, os.WriteFile(filepath.Join(root, "Routes.swift"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "Trap.swift.gyb"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".A.swift.gyb"), []byte("x"), 0644))

	require.NoError(t, os.WriteFile(filepath.Join(root, "A.swift.gyb"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Sub", "B.swift.gyb"), []byte("b"), 0644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		seen := make(map[string]bool)
		for _, batch := range batches {
			for _, event := range batch {
				seen[filepath.Base(event.Path)] = true
			}
		}
		return seen["A.swift.gyb"] && seen["B.swift.gyb"]
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, batch := range batches {
		for _, event := range batch {
			assert.NotEqual(t, "Routes.swift", filepath.Base(event.Path))
			assert.NotEqual(t, "Trap.swift.gyb", filepath.Base(event.Path))
			assert.NotEqual(t, ".A.swift.gyb", filepath.Base(event.Path))
		}
	}
}
