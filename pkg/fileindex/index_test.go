package fileindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photomirror/photomirror/pkg/errors"
)

func newTestIndex(t *testing.T) (*Index, string) {
	t.Helper()
	dir := t.TempDir()
	ix, err := Open(filepath.Join(dir, ".photomirror"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return ix, dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestOpen_EmptyDir(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestAddExists_RoundTrip(t *testing.T) {
	ix, dir := newTestIndex(t)
	ctx := context.Background()

	path := filepath.Join(dir, "2023", "07", "14", "IMG_1.JPG")
	writeFile(t, path, "jpeg bytes")

	require.NoError(t, ix.Add(ctx, path, -1))
	assert.True(t, ix.Exists(ctx, path, false))
	assert.True(t, ix.Exists(ctx, path, true))
	assert.False(t, ix.Exists(ctx, filepath.Join(dir, "other.JPG"), false))
}

func TestExists_SelfHealing(t *testing.T) {
	ix, dir := newTestIndex(t)
	ctx := context.Background()

	path := filepath.Join(dir, "IMG_2.JPG")
	writeFile(t, path, "bytes")
	require.NoError(t, ix.Add(ctx, path, -1))

	require.NoError(t, os.Remove(path))

	// Fast path still trusts the index.
	assert.True(t, ix.Exists(ctx, path, false))
	// Verified lookup detects the absence and heals the index.
	assert.False(t, ix.Exists(ctx, path, true))
	assert.False(t, ix.Exists(ctx, path, false))
}

func TestAdd_SuppliedSize(t *testing.T) {
	ix, dir := newTestIndex(t)
	ctx := context.Background()

	// Path does not exist on disk; supplied size is recorded as-is.
	path := filepath.Join(dir, "pending.JPG")
	require.NoError(t, ix.Add(ctx, path, 1234))
	assert.True(t, ix.Exists(ctx, path, false))
}

func TestRemove(t *testing.T) {
	ix, dir := newTestIndex(t)
	ctx := context.Background()

	path := filepath.Join(dir, "IMG_3.JPG")
	require.NoError(t, ix.Add(ctx, path, 10))
	require.NoError(t, ix.Remove(ctx, path))
	assert.False(t, ix.Exists(ctx, path, false))

	// Removing an absent entry is not an error.
	require.NoError(t, ix.Remove(ctx, path))
}

func TestRebuild_ReflectsDisk(t *testing.T) {
	ix, dir := newTestIndex(t)
	ctx := context.Background()

	root := filepath.Join(dir, "library")
	var want []string
	for i := 0; i < 10; i++ {
		p := filepath.Join(root, "2023", "01", fmt.Sprintf("%02d", i+1), fmt.Sprintf("IMG_%d.JPG", i))
		writeFile(t, p, "x")
		want = append(want, p)
	}

	// A stale entry under root and an entry outside root.
	stale := filepath.Join(root, "2020", "01", "01", "GONE.JPG")
	outside := filepath.Join(dir, "elsewhere", "KEEP.JPG")
	require.NoError(t, ix.Add(ctx, stale, 1))
	require.NoError(t, ix.Add(ctx, outside, 1))

	require.NoError(t, ix.Rebuild(ctx, root))

	for _, p := range want {
		assert.True(t, ix.Exists(ctx, p, false), p)
	}
	assert.False(t, ix.Exists(ctx, stale, false), "stale entry must be dropped by rebuild")
	assert.True(t, ix.Exists(ctx, outside, false), "entries outside root must survive")
}

func TestShouldRebuild_IntervalGate(t *testing.T) {
	ix, dir := newTestIndex(t)
	ctx := context.Background()

	root := filepath.Join(dir, "library")
	writeFile(t, filepath.Join(root, "IMG_1.JPG"), "x")

	// No marker yet: rebuild is due.
	assert.True(t, ix.ShouldRebuild(24*time.Hour))

	require.NoError(t, ix.Rebuild(ctx, root))

	// Second run within the interval is gated off by the marker.
	assert.False(t, ix.ShouldRebuild(24*time.Hour))

	// An aged marker makes a rebuild due again.
	require.NoError(t, ix.writeMarker(rebuildMarkerFile, time.Now().Add(-25*time.Hour)))
	assert.True(t, ix.ShouldRebuild(24*time.Hour))
}

func TestStats(t *testing.T) {
	ix, dir := newTestIndex(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, ix.Add(ctx, filepath.Join(dir, fmt.Sprintf("IMG_%d.JPG", i)), 1))
	}

	stats, err := ix.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.RecentlyVerified)
}

func TestLastSync_RoundTrip(t *testing.T) {
	ix, _ := newTestIndex(t)

	_, ok := ix.LastSync()
	assert.False(t, ok)

	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, ix.SetLastSync(ts))

	got, ok := ix.LastSync()
	require.True(t, ok)
	assert.True(t, ts.Equal(got))
}

func TestConcurrentOperations(t *testing.T) {
	ix, dir := newTestIndex(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				p := filepath.Join(dir, fmt.Sprintf("w%d", w), fmt.Sprintf("IMG_%d.JPG", i))
				assert.NoError(t, ix.Add(ctx, p, int64(i)))
				ix.Exists(ctx, p, false)
			}
		}(w)
	}
	wg.Wait()

	stats, err := ix.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8*25, stats.Total)
}

func TestOperationsAfterClose(t *testing.T) {
	ix, dir := newTestIndex(t)
	ctx := context.Background()

	path := filepath.Join(dir, "2023", "07", "14", "IMG_1.JPG")
	require.NoError(t, ix.Add(ctx, path, 10))

	require.NoError(t, ix.Close())
	require.NoError(t, ix.Close())

	assert.False(t, ix.Exists(ctx, path, false))
	assert.ErrorIs(t, ix.Add(ctx, path, 10), errors.ErrIndexClosed)
	assert.ErrorIs(t, ix.Remove(ctx, path), errors.ErrIndexClosed)
	assert.ErrorIs(t, ix.Rebuild(ctx, dir), errors.ErrIndexClosed)
	_, err := ix.Stats(ctx)
	assert.ErrorIs(t, err, errors.ErrIndexClosed)
}
