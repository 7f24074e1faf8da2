// Package asset defines the data model for remote photo/video items and their
// downloadable renditions.
package asset

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Variant is one downloadable rendition of an asset, built from a single
// listing response. Variants are immutable and never persisted.
type Variant struct {
	Kind     SizeKind
	Filename string // raw filename as reported by the server, may repeat across kinds
	Type     string // API type tag, e.g. "public.heic" or "com.apple.quicktime-movie"
	Size     int64
	Checksum string
	URL      string
}

// Asset is one logical photo/video in the remote library, materialized per
// sync pass from the listing.
type Asset struct {
	ID        string
	Created   time.Time
	Favorite  bool
	Hidden    bool
	Deleted   bool
	LivePhoto bool
	Variants  map[SizeKind]Variant

	// Metadata decoded from the record's field blob; any of these may be
	// empty when the field was absent or undecodable.
	Caption     string
	Description string
	Orientation int
	Latitude    *float64
	Longitude   *float64
	Keywords    []string
}

// FolderPath returns the dated library folder for the asset under root,
// partitioned as YYYY/MM/DD from the creation date.
func (a *Asset) FolderPath(root string) string {
	return filepath.Join(root,
		fmt.Sprintf("%04d", a.Created.Year()),
		fmt.Sprintf("%02d", int(a.Created.Month())),
		fmt.Sprintf("%02d", a.Created.Day()))
}

// HasDate reports whether the asset carries a usable creation date. Assets
// without one cannot be placed in the library tree and are skipped.
func (a *Asset) HasDate() bool {
	return !a.Created.IsZero()
}

// IsVideo reports whether the asset's original rendition is a movie.
func (a *Asset) IsVideo() bool {
	v, ok := a.Variants[SizeOriginal]
	if !ok {
		return false
	}
	return strings.Contains(v.Type, "movie") || strings.Contains(v.Type, "video") ||
		strings.HasPrefix(v.Type, "public.mpeg")
}
