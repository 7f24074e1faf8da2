package fileindex

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/pkg/errors"
)

// Rebuild destructively reconstructs the index for everything under root: all
// entries whose path falls under root are dropped, then the tree is walked
// and every regular file re-added. Individual stat failures are logged and
// skipped so one unreadable file cannot abort the scan. On success the
// rebuild marker is refreshed.
func (ix *Index) Rebuild(ctx context.Context, root string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return errors.ErrIndexClosed
	}

	prefix := pathPrefix(root)
	if _, err := ix.db.ExecContext(ctx,
		`DELETE FROM files WHERE path LIKE ? ESCAPE '\'`, likePattern(prefix)); err != nil {
		return errors.Wrapf(err, "failed to clear index entries under %s", root)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping unreadable path during rebuild", logger.Fields{
				"path": path, "error": err.Error(),
			})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Warn("skipping file with failed stat during rebuild", logger.Fields{
				"path": path, "error": err.Error(),
			})
			return nil
		}

		_, err = ix.db.ExecContext(ctx, `
			INSERT INTO files (path, size, mtime, verified_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				size = excluded.size,
				mtime = excluded.mtime,
				verified_at = excluded.verified_at
		`, path, info.Size(), info.ModTime().UTC().Format(time.RFC3339), now)
		return err
	})
	if walkErr != nil {
		return errors.Wrapf(walkErr, "rebuild walk of %s failed", root)
	}

	return ix.writeMarker(rebuildMarkerFile, time.Now())
}

// ShouldRebuild reports whether a rebuild is due: the marker file is missing,
// unreadable, or older than interval.
func (ix *Index) ShouldRebuild(interval time.Duration) bool {
	if interval <= 0 {
		interval = DefaultRebuildInterval
	}
	last, ok := ix.readMarker(rebuildMarkerFile)
	if !ok {
		return true
	}
	return time.Since(last) >= interval
}

// likePattern escapes a path prefix for a LIKE clause and appends the
// wildcard.
func likePattern(prefix string) string {
	escaped := make([]byte, 0, len(prefix)+8)
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		if c == '%' || c == '_' || c == '\\' {
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, c)
	}
	return string(escaped) + "%"
}
