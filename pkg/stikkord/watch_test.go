package stikkord

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastWatchTimers(t *testing.T) {
	t.Helper()
	d, s := watchDebounce, watchSettle
	watchDebounce = 50 * time.Millisecond
	watchSettle = 50 * time.Millisecond
	t.Cleanup(func() { watchDebounce, watchSettle = d, s })
}

func TestWatchRunsCallback(t *testing.T) {
	fastWatchTimers(t)
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var fired atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, func() { fired.Add(1) })
	}()

	// give the watcher a moment to register before producing events
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.jpg"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		return fired.Load() > 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}

// TestWatchIgnoresCallbackWrites models a tagging pass: the callback rewrites
// files inside the watched folder. Those writes must not schedule another
// pass, while later external changes still do.
func TestWatchIgnoresCallbackWrites(t *testing.T) {
	fastWatchTimers(t)
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var fired atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, func() {
			n := fired.Add(1)
			os.WriteFile(filepath.Join(dir, fmt.Sprintf("tagged-%d.jpg", n)), []byte("x"), 0o644)
		})
	}()

	time.Sleep(200 * time.Millisecond)

	// a burst of external drops coalesces into a single pass
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("drop-%d.jpg", i)), []byte("x"), 0o644))
	}
	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// the pass's own write must not fire it again
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())

	// a fresh external change still does
	require.NoError(t, os.WriteFile(filepath.Join(dir, "later.jpg"), []byte("x"), 0o644))
	require.Eventually(t, func() bool {
		return fired.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatchMissingFolder(t *testing.T) {
	err := Watch(context.Background(), "/no/such/folder", func() {})
	assert.Error(t, err)
}
