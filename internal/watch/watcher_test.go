package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "a/B.class", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "a/B.class", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "a/sub", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "a/B.class", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "a/notes.txt", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relevant(tt.ev), tt.ev.String())
	}
}

func TestWatcher_RescansOnClassChange(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, 20*time.Millisecond, nil)
	require.NoError(t, err)

	calls := make(chan struct{}, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			calls <- struct{}{}
			return nil
		})
	}()

	waitCall := func() {
		t.Helper()
		select {
		case <-calls:
		case <-time.After(5 * time.Second):
			t.Fatal("scan was not triggered")
		}
	}

	waitCall() // initial scan
	require.NoError(t, os.WriteFile(filepath.Join(root, "A.class"), []byte{0xCA}, 0o644))
	waitCall()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), time.Second, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
