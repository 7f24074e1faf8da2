package icloud

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/photomirror/photomirror/pkg/asset"
)

// wireRecord is a single record from a records/query response. Every field in
// a record is a {value, type} pair; values are decoded lazily since field
// types vary per key.
type wireRecord struct {
	RecordName string               `json:"recordName"`
	RecordType string               `json:"recordType"`
	Fields     map[string]wireField `json:"fields"`
}

type wireField struct {
	Value interface{} `json:"value"`
	Type  string      `json:"type"`
}

// wireResource is the value shape of ASSETID fields, one per rendition.
type wireResource struct {
	DownloadURL  string `json:"downloadURL"`
	Size         int64  `json:"size"`
	FileChecksum string `json:"fileChecksum"`
}

// resourceKeys maps the per-rendition field prefix to the rendition it
// describes. Each prefix has a "<prefix>Res" asset field and a
// "<prefix>FileType" string field.
var resourceKeys = map[string]asset.SizeKind{
	"resOriginal":         asset.SizeOriginal,
	"resOriginalAlt":      asset.SizeAlternative,
	"resJPEGFull":         asset.SizeAdjusted,
	"resJPEGMed":          asset.SizeMedium,
	"resJPEGThumb":        asset.SizeThumb,
	"resOriginalVidCompl": asset.SizeOriginalVideo,
	"resVidMed":           asset.SizeMediumVideo,
	"resVidSmall":         asset.SizeThumbVideo,
}

func decodeRecord(rec wireRecord) (asset.Asset, error) {
	a := asset.Asset{
		ID:       rec.RecordName,
		Variants: make(map[asset.SizeKind]asset.Variant),
	}
	if a.ID == "" {
		return a, fmt.Errorf("record without a name")
	}

	filename := decodeBase64String(rec.Fields, "filenameEnc")

	for prefix, kind := range resourceKeys {
		res, ok := decodeResource(rec.Fields, prefix+"Res")
		if !ok {
			continue
		}
		a.Variants[kind] = asset.Variant{
			Kind:     kind,
			Filename: filename,
			Type:     decodeString(rec.Fields, prefix+"FileType"),
			Size:     res.Size,
			Checksum: res.FileChecksum,
			URL:      res.DownloadURL,
		}
	}
	if len(a.Variants) == 0 {
		return a, fmt.Errorf("record %s has no downloadable renditions", a.ID)
	}

	if ms, ok := decodeNumber(rec.Fields, "assetDate"); ok {
		a.Created = time.UnixMilli(int64(ms)).UTC()
	}
	a.Favorite = decodeBool(rec.Fields, "isFavorite")
	a.Hidden = decodeBool(rec.Fields, "isHidden")
	a.Deleted = decodeBool(rec.Fields, "isDeleted")
	_, a.LivePhoto = a.Variants[asset.SizeOriginalVideo]

	a.Caption = decodeBase64String(rec.Fields, "captionEnc")
	a.Description = decodeBase64String(rec.Fields, "extendedDescEnc")
	if n, ok := decodeNumber(rec.Fields, "orientation"); ok {
		a.Orientation = int(n)
	}
	decodeLocation(rec.Fields, &a)
	a.Keywords = decodeKeywords(rec.Fields)

	return a, nil
}

func decodeString(fields map[string]wireField, key string) string {
	f, ok := fields[key]
	if !ok {
		return ""
	}
	s, _ := f.Value.(string)
	return s
}

// decodeBase64String decodes an ENCRYPTED_BYTES field, which despite the type
// name is plain base64-encoded UTF-8. Undecodable values are treated as
// absent.
func decodeBase64String(fields map[string]wireField, key string) string {
	raw := decodeString(fields, key)
	if raw == "" {
		return ""
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return ""
	}
	return string(b)
}

func decodeNumber(fields map[string]wireField, key string) (float64, bool) {
	f, ok := fields[key]
	if !ok {
		return 0, false
	}
	n, ok := f.Value.(float64)
	return n, ok
}

func decodeBool(fields map[string]wireField, key string) bool {
	n, ok := decodeNumber(fields, key)
	return ok && n != 0
}

func decodeResource(fields map[string]wireField, key string) (wireResource, bool) {
	f, ok := fields[key]
	if !ok {
		return wireResource{}, false
	}
	m, ok := f.Value.(map[string]interface{})
	if !ok {
		return wireResource{}, false
	}
	// Round-trip through JSON rather than asserting each member by hand.
	b, err := json.Marshal(m)
	if err != nil {
		return wireResource{}, false
	}
	var res wireResource
	if err := json.Unmarshal(b, &res); err != nil || res.DownloadURL == "" {
		return wireResource{}, false
	}
	return res, true
}

func decodeLocation(fields map[string]wireField, a *asset.Asset) {
	raw := decodeString(fields, "locationEnc")
	if raw == "" {
		return
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return
	}
	var loc struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := json.Unmarshal(b, &loc); err != nil {
		return
	}
	a.Latitude = &loc.Lat
	a.Longitude = &loc.Lon
}

func decodeKeywords(fields map[string]wireField) []string {
	raw := decodeString(fields, "keywordsEnc")
	if raw == "" {
		return nil
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var kw []string
	if err := json.Unmarshal(b, &kw); err != nil {
		return nil
	}
	return kw
}
