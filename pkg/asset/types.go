package asset

import (
	"path/filepath"
	"strings"
)

// typeExtensions maps API type tags (UTIs) to the canonical file extension.
// Unknown tags keep whatever extension the reported filename carries.
var typeExtensions = map[string]string{
	"public.jpeg":               ".JPG",
	"public.png":                ".PNG",
	"public.heic":               ".HEIC",
	"public.heif":               ".HEIF",
	"public.tiff":               ".TIFF",
	"com.compuserve.gif":        ".GIF",
	"com.adobe.raw-image":       ".DNG",
	"com.canon.cr2-raw-image":   ".CR2",
	"com.canon.cr3-raw-image":   ".CR3",
	"com.sony.arw-raw-image":    ".ARW",
	"com.nikon.raw-image":       ".NEF",
	"com.fuji.raw-image":        ".RAF",
	"com.apple.quicktime-movie": ".MOV",
	"public.mpeg-4":             ".MP4",
}

// ExtensionForType returns the canonical extension for an API type tag, or
// "" when the tag is unknown.
func ExtensionForType(typeTag string) string {
	return typeExtensions[typeTag]
}

// MatchesType reports whether filename's extension already agrees with the
// canonical extension for typeTag. Unknown tags always match.
func MatchesType(filename, typeTag string) bool {
	want := ExtensionForType(typeTag)
	if want == "" {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), want)
}
