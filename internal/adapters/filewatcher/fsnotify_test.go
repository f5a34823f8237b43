package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loglens/loglens-go/internal/domain/ports"
)

func collectEvent(t *testing.T, events <-chan ports.FileEvent) ports.FileEvent {
	t.Helper()
	select {
	case event := <-events:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return ports.FileEvent{}
	}
}

func TestFSNotifyWatcher_EmitsCreateForLogFiles(t *testing.T) {
	dir := t.TempDir()
	watcher, err := NewFSNotifyWatcher(nil)
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := watcher.Watch(ctx, dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, []byte("ERROR boom\n"), 0o644))

	event := collectEvent(t, events)
	assert.Equal(t, path, event.Path)
}

func TestFSNotifyWatcher_IgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	watcher, err := NewFSNotifyWatcher([]string{".log"})
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := watcher.Watch(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.log"), []byte("y"), 0o644))

	// Only the .log file surfaces.
	event := collectEvent(t, events)
	assert.Equal(t, filepath.Join(dir, "app.log"), event.Path)
}

func TestFSNotifyWatcher_WatchFailsOnMissingDir(t *testing.T) {
	watcher, err := NewFSNotifyWatcher(nil)
	require.NoError(t, err)
	defer watcher.Stop()

	_, err = watcher.Watch(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
