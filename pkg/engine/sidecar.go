package engine

import (
	"strconv"
	"strings"
	"time"

	"github.com/photomirror/photomirror/pkg/asset"
	"github.com/photomirror/photomirror/pkg/metadata"
)

// MetadataSidecars writes XMP sidecars from remote asset metadata. It is the
// default SidecarWriter implementation.
type MetadataSidecars struct{}

// WriteSidecar merges the asset's metadata into the sidecar next to
// mediaPath. Existing values win unless overwrite is set; unknown keys in an
// existing sidecar always survive.
func (MetadataSidecars) WriteSidecar(mediaPath string, a asset.Asset, overwrite, dryRun bool) error {
	existing, err := metadata.Read(mediaPath)
	if err != nil {
		// A corrupt sidecar is replaced rather than failing the download.
		existing = metadata.Fields{}
	}

	merged := metadata.Merge(existing, desiredFields(a), overwrite, nil)
	return metadata.Write(mediaPath, merged, dryRun)
}

func desiredFields(a asset.Asset) map[string]*string {
	desired := map[string]*string{
		metadata.FieldAssetID: ptr(a.ID),
	}
	if a.Caption != "" {
		desired[metadata.FieldTitle] = ptr(a.Caption)
	}
	if a.Description != "" {
		desired[metadata.FieldDescription] = ptr(a.Description)
	}
	if a.HasDate() {
		desired[metadata.FieldCreated] = ptr(a.Created.Format(time.RFC3339))
	}
	if a.Orientation != 0 {
		desired[metadata.FieldOrientation] = ptr(strconv.Itoa(a.Orientation))
	}
	if a.Latitude != nil && a.Longitude != nil {
		desired[metadata.FieldLatitude] = ptr(strconv.FormatFloat(*a.Latitude, 'f', -1, 64))
		desired[metadata.FieldLongitude] = ptr(strconv.FormatFloat(*a.Longitude, 'f', -1, 64))
	}
	if len(a.Keywords) > 0 {
		desired[metadata.FieldKeywords] = ptr(strings.Join(a.Keywords, ","))
	}
	if a.Favorite {
		desired[metadata.FieldFavorite] = ptr("true")
	}
	return desired
}

func ptr(s string) *string { return &s }
