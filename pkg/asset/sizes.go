package asset

import (
	"fmt"

	"github.com/photomirror/photomirror/pkg/errors"
)

// SizeKind is the closed enumeration of downloadable renditions the remote
// library reports for one asset. The zero value is not a valid kind.
type SizeKind int

// Size kinds, ordered from most preserving of original bits to most derived.
// The declaration order is the priority order used by filename disambiguation
// and must not be re-derived anywhere else.
const (
	SizeOriginal SizeKind = iota + 1
	SizeAlternative
	SizeAdjusted
	SizeMedium
	SizeThumb
	SizeOriginalVideo
	SizeMediumVideo
	SizeThumbVideo
)

// AllSizes lists every valid size kind in priority order.
var AllSizes = []SizeKind{
	SizeOriginal,
	SizeAlternative,
	SizeAdjusted,
	SizeMedium,
	SizeThumb,
	SizeOriginalVideo,
	SizeMediumVideo,
	SizeThumbVideo,
}

var sizeLabels = map[SizeKind]string{
	SizeOriginal:      "original",
	SizeAlternative:   "alternative",
	SizeAdjusted:      "adjusted",
	SizeMedium:        "medium",
	SizeThumb:         "thumb",
	SizeOriginalVideo: "originalVideo",
	SizeMediumVideo:   "mediumVideo",
	SizeThumbVideo:    "thumbVideo",
}

// sizeSuffixes is the fixed filename suffix token per kind. SizeOriginal is
// suffix-free under the ordinary policy; its token here is only used when a
// collision forces suffixing.
var sizeSuffixes = map[SizeKind]string{
	SizeOriginal:      "original",
	SizeAlternative:   "alternative",
	SizeAdjusted:      "adjusted",
	SizeMedium:        "medium",
	SizeThumb:         "thumb",
	SizeOriginalVideo: "live",
	SizeMediumVideo:   "live-medium",
	SizeThumbVideo:    "live-thumb",
}

// String returns the stable API label for the kind.
func (s SizeKind) String() string {
	if l, ok := sizeLabels[s]; ok {
		return l
	}
	return fmt.Sprintf("size(%d)", int(s))
}

// Suffix returns the fixed filename suffix token for the kind.
func (s SizeKind) Suffix() string {
	return sizeSuffixes[s]
}

// Priority returns the disambiguation priority index; lower wins the bare
// filename when two kinds report the same raw name.
func (s SizeKind) Priority() int {
	return int(s)
}

// IsCanonical reports whether the kind is a full-quality rendition that keeps
// the bare filename under the ordinary naming policy. Derived sizes always
// carry their suffix.
func (s SizeKind) IsCanonical() bool {
	return s == SizeOriginal || s == SizeAlternative
}

// IsVideoCompanion reports whether the kind is a live-photo video rendition.
func (s SizeKind) IsVideoCompanion() bool {
	switch s {
	case SizeOriginalVideo, SizeMediumVideo, SizeThumbVideo:
		return true
	}
	return false
}

// Valid reports whether s is one of the declared kinds.
func (s SizeKind) Valid() bool {
	_, ok := sizeLabels[s]
	return ok
}

// ParseSizeKind maps an API label back to its kind.
func ParseSizeKind(label string) (SizeKind, error) {
	for k, l := range sizeLabels {
		if l == label {
			return k, nil
		}
	}
	return 0, errors.Wrapf(errors.ErrUnknownSize, "%q", label)
}
