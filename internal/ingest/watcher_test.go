package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupported(t *testing.T) {
	assert.True(t, Supported("/tmp/essay.PDF"))
	assert.True(t, Supported("scan.jpeg"))
	assert.True(t, Supported("scan.png"))
	assert.False(t, Supported("notes.txt"))
	assert.False(t, Supported("noext"))
}

func TestNewWatcherRequiresRoots(t *testing.T) {
	_, err := NewWatcher(WatchConfig{}, nil)
	require.Error(t, err)
}

func TestWatcherInitialScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hw1.pdf"), []byte("%PDF"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("x"), 0o600))

	w, err := NewWatcher(WatchConfig{Roots: []string{dir}, InitialScan: true}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case p := <-w.Files():
		assert.Equal(t, filepath.Join(dir, "hw1.pdf"), p)
	case <-time.After(2 * time.Second):
		t.Fatal("initial file not reported")
	}
	cancel()
	require.NoError(t, <-done)
	_, open := <-w.Files()
	assert.False(t, open)
}

func TestWatcherReportsNewFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(WatchConfig{Roots: []string{dir}, Debounce: 20 * time.Millisecond}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o600))
	target := filepath.Join(dir, "worksheet.png")
	require.NoError(t, os.WriteFile(target, []byte("png"), 0o600))

	select {
	case p := <-w.Files():
		assert.Equal(t, target, p)
	case <-time.After(3 * time.Second):
		t.Fatal("new file not reported")
	}
}
