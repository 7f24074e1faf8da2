// Package fileindex maintains a persistent index of files known to exist in
// the local library, so steady-state re-runs can skip disk and network checks
// for assets that were already downloaded.
package fileindex

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/pkg/errors"
	"github.com/photomirror/photomirror/pkg/fsutil"
)

const (
	dbFilename         = "index.db"
	rebuildMarkerFile  = "last_rebuild"
	lastSyncMarkerFile = "last_sync"

	// DefaultRebuildInterval gates how often a full rebuild scan may run.
	DefaultRebuildInterval = 24 * time.Hour

	// recentWindow is the "recently verified" horizon reported by Stats.
	recentWindow = 24 * time.Hour
)

// Index is the SQLite-backed local file index. All exported operations take
// the internal lock for exactly one call; callers composing check-then-act
// sequences must tolerate the index changing between calls.
type Index struct {
	db     *sql.DB
	dir    string
	mu     sync.Mutex
	closed bool
}

// Stats describes the index contents.
type Stats struct {
	Total            int
	RecentlyVerified int
}

// Open opens (creating if necessary) the index stored under stateDir.
func Open(stateDir string) (*Index, error) {
	if stateDir == "" {
		return nil, errors.ErrIndexDirectory
	}
	if err := fsutil.EnsureDir(stateDir); err != nil {
		return nil, errors.Wrap(err, "failed to create index directory")
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		filepath.Join(stateDir, dbFilename))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open index database")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to connect to index database")
	}

	ix := &Index{db: db, dir: stateDir}
	if err := ix.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return ix, nil
}

func (ix *Index) initialize() error {
	schema := `
CREATE TABLE IF NOT EXISTS files (
    path        TEXT PRIMARY KEY,
    size        INTEGER NOT NULL DEFAULT 0,
    mtime       TEXT NOT NULL,
    verified_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_files_verified ON files(verified_at);
`
	if _, err := ix.db.Exec(schema); err != nil {
		return errors.Wrap(err, "failed to initialize index schema")
	}
	return nil
}

// Close closes the underlying database. Later mutating calls return
// ErrIndexClosed; lookups report a miss.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return nil
	}
	ix.closed = true
	return ix.db.Close()
}

// Exists reports whether path is known to exist locally. The fast path trusts
// the index row alone. With verifyDisk the file is additionally stat'ed; a
// confirmed absence deletes the stale row (self-healing) and reports false.
// Index errors are treated as a miss so a broken index re-downloads rather
// than skips.
func (ix *Index) Exists(ctx context.Context, path string, verifyDisk bool) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return false
	}

	var one int
	err := ix.db.QueryRowContext(ctx, `SELECT 1 FROM files WHERE path = ?`, path).Scan(&one)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		logger.Warn("index lookup failed, treating as miss", logger.Fields{
			"path": path, "error": err.Error(),
		})
		return false
	}

	if !verifyDisk {
		return true
	}
	if fsutil.FileExists(path) {
		return true
	}
	if _, err := ix.db.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path); err != nil {
		logger.Warn("failed to drop stale index entry", logger.Fields{
			"path": path, "error": err.Error(),
		})
	}
	return false
}

// Add upserts an entry for path. When size is negative and the file exists on
// disk, size and mtime are taken from the file; otherwise the supplied size
// and the current time are recorded. verified_at is always set to now.
func (ix *Index) Add(ctx context.Context, path string, size int64) error {
	now := time.Now().UTC()
	mtime := now
	if size < 0 {
		size = 0
		if st, err := os.Stat(path); err == nil {
			size = st.Size()
			mtime = st.ModTime().UTC()
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return errors.ErrIndexClosed
	}

	_, err := ix.db.ExecContext(ctx, `
		INSERT INTO files (path, size, mtime, verified_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mtime = excluded.mtime,
			verified_at = excluded.verified_at
	`, path, size, mtime.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return errors.Wrapf(err, "failed to upsert index entry for %s", path)
	}
	return nil
}

// Remove deletes the entry for path unconditionally.
func (ix *Index) Remove(ctx context.Context, path string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return errors.ErrIndexClosed
	}

	if _, err := ix.db.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path); err != nil {
		return errors.Wrapf(err, "failed to remove index entry for %s", path)
	}
	return nil
}

// Stats returns the total entry count and how many entries were verified
// within the last 24 hours.
func (ix *Index) Stats(ctx context.Context) (Stats, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return Stats{}, errors.ErrIndexClosed
	}

	var s Stats
	if err := ix.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&s.Total); err != nil {
		return Stats{}, errors.Wrap(err, "failed to count index entries")
	}

	cutoff := time.Now().Add(-recentWindow).UTC().Format(time.RFC3339)
	err := ix.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM files WHERE verified_at >= ?`, cutoff).Scan(&s.RecentlyVerified)
	if err != nil {
		return Stats{}, errors.Wrap(err, "failed to count recently verified entries")
	}
	return s, nil
}

// pathPrefix normalizes root into the prefix its children share.
func pathPrefix(root string) string {
	return strings.TrimSuffix(filepath.Clean(root), string(filepath.Separator)) + string(filepath.Separator)
}
