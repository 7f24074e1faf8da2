// Package metadata reads and writes XMP sidecar files stored alongside
// downloaded media. Sidecar failures are never fatal to a download; callers
// log and continue.
package metadata

import (
	"encoding/xml"
	"os"
	"sort"

	"github.com/photomirror/photomirror/pkg/errors"
	"github.com/photomirror/photomirror/pkg/fsutil"
)

// Fields is a flat key/value view of a sidecar's contents. Keys not managed
// by this tool survive read-merge-write cycles untouched.
type Fields map[string]string

// Well-known field keys written from remote asset metadata.
const (
	FieldTitle       = "Title"
	FieldCreated     = "CreateDate"
	FieldDescription = "Description"
	FieldOrientation = "Orientation"
	FieldLatitude    = "Latitude"
	FieldLongitude   = "Longitude"
	FieldKeywords    = "Keywords"
	FieldFavorite    = "Favorite"
	FieldAssetID     = "AssetID"
)

// SidecarPath returns the sidecar location for a media file:
// {name}.{ext}.xmp alongside the media.
func SidecarPath(mediaPath string) string {
	return mediaPath + ".xmp"
}

// Merge applies desired values over existing ones. When only is non-empty,
// just those keys are candidates for change. A key changes only if overwrite
// is set or the key is absent from existing; a nil desired value never
// overwrites. Keys of existing that desired does not mention are preserved
// verbatim.
func Merge(existing Fields, desired map[string]*string, overwrite bool, only []string) Fields {
	merged := make(Fields, len(existing)+len(desired))
	for k, v := range existing {
		merged[k] = v
	}

	candidate := func(key string) bool {
		if len(only) == 0 {
			return true
		}
		for _, k := range only {
			if k == key {
				return true
			}
		}
		return false
	}

	for k, v := range desired {
		if v == nil || !candidate(k) {
			continue
		}
		if _, present := merged[k]; present && !overwrite {
			continue
		}
		merged[k] = *v
	}
	return merged
}

// xmpField is one generic element inside the rdf:Description block. Keeping
// fields generic is what preserves keys this tool does not know about.
type xmpField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmpDescription struct {
	XMLName xml.Name   `xml:"Description"`
	About   string     `xml:"about,attr"`
	Fields  []xmpField `xml:",any"`
}

type xmpRDF struct {
	XMLName     xml.Name       `xml:"RDF"`
	Description xmpDescription `xml:"Description"`
}

type xmpMeta struct {
	XMLName xml.Name `xml:"xmpmeta"`
	RDF     xmpRDF   `xml:"RDF"`
}

// Read loads the sidecar for mediaPath. A missing sidecar yields empty
// fields and no error; a corrupt one yields empty fields and the parse error
// for the caller to log.
func Read(mediaPath string) (Fields, error) {
	data, err := os.ReadFile(SidecarPath(mediaPath))
	if os.IsNotExist(err) {
		return Fields{}, nil
	}
	if err != nil {
		return Fields{}, errors.Wrap(err, "failed to read sidecar")
	}

	var doc xmpMeta
	if err := xml.Unmarshal(data, &doc); err != nil {
		return Fields{}, errors.Wrap(err, "failed to parse sidecar")
	}

	fields := make(Fields, len(doc.RDF.Description.Fields))
	for _, f := range doc.RDF.Description.Fields {
		fields[f.XMLName.Local] = f.Value
	}
	return fields, nil
}

// Write stores fields as the sidecar for mediaPath, replacing any previous
// sidecar. With dryRun no file is touched.
func Write(mediaPath string, fields Fields, dryRun bool) error {
	if dryRun {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := xmpMeta{}
	doc.RDF.Description.Fields = make([]xmpField, 0, len(keys))
	for _, k := range keys {
		doc.RDF.Description.Fields = append(doc.RDF.Description.Fields, xmpField{
			XMLName: xml.Name{Local: k},
			Value:   fields[k],
		})
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode sidecar")
	}
	data = append([]byte(xml.Header), data...)

	path := SidecarPath(mediaPath)
	if err := os.WriteFile(path, data, fsutil.FileModeDefault); err != nil {
		return errors.Wrapf(err, "failed to write sidecar %s", path)
	}
	return nil
}
