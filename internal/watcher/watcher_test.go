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

	apierrors "apidump/internal/errors"
	"apidump/internal/slogutil"
)

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      string
	}{
		{EventCreate, "create"},
		{EventModify, "modify"},
		{EventDelete, "delete"},
		{EventRename, "rename"},
		{EventType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.eventType.String())
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, 250, config.DebounceMs)
	assert.Contains(t, config.IgnorePatterns, "obj/**")
	assert.Contains(t, config.IgnorePatterns, "*.swp")
}

func TestWatcherIsIgnored(t *testing.T) {
	w, err := New(DefaultConfig(), slogutil.NewDiscardLogger(), nil)
	require.NoError(t, err)
	defer w.Close()

	tests := []struct {
		path string
		want bool
	}{
		{"Shapes.cs", false},
		{"src/Shapes.cs", false},
		{"Shapes.cs.swp", true},
		{"src/.#Shapes.cs", true},
		{"Shapes.cs~", true},
		{"obj/Debug/Gen.cs", true},
		{"src/bin/Release/Gen.cs", true},
		{"objects/Thing.cs", false},
		{"build.tmp", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, w.IsIgnored(tt.path))
		})
	}
}

func TestBatchDebouncerCoalesces(t *testing.T) {
	var mu sync.Mutex
	var batches [][]Event
	b := NewBatchDebouncer(50*time.Millisecond, func(events []Event) {
		mu.Lock()
		batches = append(batches, events)
		mu.Unlock()
	})

	b.Add(Event{Type: EventCreate, Path: "a.cs"})
	b.Add(Event{Type: EventModify, Path: "b.cs"})
	b.Add(Event{Type: EventModify, Path: "a.cs"})
	assert.Equal(t, 2, b.EventCount())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches[0], 2)
	assert.Equal(t, "a.cs", batches[0][0].Path)
	assert.Equal(t, EventModify, batches[0][0].Type)
	assert.Equal(t, "b.cs", batches[0][1].Path)
	assert.Equal(t, 0, b.EventCount())
}

func TestBatchDebouncerCancel(t *testing.T) {
	var mu sync.Mutex
	emitted := false
	b := NewBatchDebouncer(30*time.Millisecond, func([]Event) {
		mu.Lock()
		emitted = true
		mu.Unlock()
	})

	b.Add(Event{Path: "a.cs"})
	b.Cancel()
	assert.Equal(t, 0, b.EventCount())

	time.Sleep(80 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.False(t, emitted)
}

func TestBatchDebouncerFlush(t *testing.T) {
	var got []Event
	b := NewBatchDebouncer(time.Hour, func(events []Event) { got = events })

	b.Add(Event{Path: "a.cs"})
	b.Add(Event{Path: "b.cs"})
	b.Flush()

	require.Len(t, got, 2)
	assert.Equal(t, 0, b.EventCount())

	got = nil
	b.Flush()
	assert.Nil(t, got, "no emission without events")
}

func TestAddMissingPath(t *testing.T) {
	w, err := New(DefaultConfig(), slogutil.NewDiscardLogger(), nil)
	require.NoError(t, err)
	defer w.Close()

	err = w.Add(filepath.Join(t.TempDir(), "missing.cs"))
	assert.True(t, apierrors.IsCode(err, apierrors.InputNotFound))
}

func TestAddDirectorySkipsBuildOutput(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"src", "src/bin", "obj"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}

	w, err := New(DefaultConfig(), slogutil.NewDiscardLogger(), nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Add(root))
	require.NoError(t, w.Add(root))
	abs, err := filepath.Abs(root)
	require.NoError(t, err)
	assert.Equal(t, []string{abs, filepath.Join(abs, "src")}, w.Watched())
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "api.yaml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(input, []byte("namespaces: []\n"), 0o644))

	events := make(chan []Event, 4)
	cfg := DefaultConfig()
	cfg.DebounceMs = 20
	w, err := New(cfg, slogutil.NewDiscardLogger(), func(_ context.Context, batch []Event) {
		events <- batch
	})
	require.NoError(t, err)
	require.NoError(t, w.Add(input))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give Run a moment to enter its loop; events queue in fsnotify meanwhile
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(input, []byte("namespaces: [{name: A}]\n"), 0o644))

	select {
	case batch := <-events:
		require.NotEmpty(t, batch)
		for _, e := range batch {
			assert.Equal(t, input, e.Path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
