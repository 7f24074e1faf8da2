package fileindex

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/photomirror/photomirror/pkg/errors"
	"github.com/photomirror/photomirror/pkg/fsutil"
)

// The rebuild and last-sync timestamps live in plain files next to the
// database. They are written by the driver only, one writer at a time.

func (ix *Index) writeMarker(name string, t time.Time) error {
	path := filepath.Join(ix.dir, name)
	data := t.UTC().Format(time.RFC3339) + "\n"
	if err := os.WriteFile(path, []byte(data), fsutil.FileModeDefault); err != nil {
		return errors.Wrapf(err, "failed to write %s marker", name)
	}
	return nil
}

func (ix *Index) readMarker(name string) (time.Time, bool) {
	data, err := os.ReadFile(filepath.Join(ix.dir, name))
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// LastSync returns the persisted end time of the previous sync pass.
func (ix *Index) LastSync() (time.Time, bool) {
	return ix.readMarker(lastSyncMarkerFile)
}

// SetLastSync persists the end time of a sync pass.
func (ix *Index) SetLastSync(t time.Time) error {
	return ix.writeMarker(lastSyncMarkerFile, t)
}

// LastRebuild returns the persisted time of the previous full rebuild.
func (ix *Index) LastRebuild() (time.Time, bool) {
	return ix.readMarker(rebuildMarkerFile)
}
