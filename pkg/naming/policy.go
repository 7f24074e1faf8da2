// Package naming computes collision-free local filenames for asset variants.
// Everything here is pure: the same inputs always produce the same plan, so
// recomputation between runs is safe.
package naming

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/photomirror/photomirror/pkg/asset"
)

// LivePhotoPolicy selects how live-photo video companions are named.
type LivePhotoPolicy string

const (
	// LivePhotoNameSuffix appends the size suffix and forces a .MOV extension.
	LivePhotoNameSuffix LivePhotoPolicy = "suffix"
	// LivePhotoNameOriginal reuses the still image's base name with a .MOV
	// extension and no suffix. This is the one place a collision with the
	// still's own name is deliberately accepted per user configuration.
	LivePhotoNameOriginal LivePhotoPolicy = "original"
)

// Options carries the user-level naming configuration.
type Options struct {
	KeepUnicode bool
	LivePhoto   LivePhotoPolicy
}

// videoExt is the extension forced onto live-photo video companions.
const videoExt = ".MOV"

// invalidChars are replaced with '_' regardless of configuration.
const invalidChars = `/\:*?"<>|`

// Clean strips characters unsafe for filesystem use from a reported filename.
// When keepUnicode is false, non-ASCII runes are folded to '_' as well.
func Clean(name string, keepUnicode bool) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case strings.ContainsRune(invalidChars, r) || unicode.IsControl(r):
			b.WriteRune('_')
		case !keepUnicode && r > unicode.MaxASCII:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ComputeFilename returns the local filename for one variant under the
// ordinary policy: the canonical size keeps the cleaned name unchanged, every
// other size gets its suffix inserted before the extension. Live-photo video
// companions follow the configured naming policy; non-image/video type tags
// rewrite the extension when the reported one disagrees.
func ComputeFilename(original string, kind asset.SizeKind, typeTag string, opts Options) string {
	return computeFilename(original, kind, typeTag, opts, false)
}

// ForcedFilename is ComputeFilename with the size suffix applied
// unconditionally, used when two kinds share a reported filename and the
// lower-priority one must not absorb the bare name.
func ForcedFilename(original string, kind asset.SizeKind, typeTag string, opts Options) string {
	return computeFilename(original, kind, typeTag, opts, true)
}

func computeFilename(original string, kind asset.SizeKind, typeTag string, opts Options, force bool) string {
	name := Clean(original, opts.KeepUnicode)

	if kind.IsVideoCompanion() {
		base := strings.TrimSuffix(name, filepath.Ext(name))
		if opts.LivePhoto == LivePhotoNameOriginal && !force {
			return base + videoExt
		}
		return base + "-" + kind.Suffix() + videoExt
	}

	if want := asset.ExtensionForType(typeTag); want != "" && !asset.MatchesType(name, typeTag) {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + want
	}

	if kind.IsCanonical() && !force {
		return name
	}
	return suffixed(name, kind.Suffix())
}

// suffixed inserts "-token" immediately before the file extension.
func suffixed(name, token string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "-" + token + ext
}
