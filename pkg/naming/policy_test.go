package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/photomirror/photomirror/pkg/asset"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		keepUnicode bool
		expected    string
	}{
		{
			name:     "plain ascii untouched",
			input:    "IMG_1234.JPG",
			expected: "IMG_1234.JPG",
		},
		{
			name:     "invalid characters replaced",
			input:    `a/b\c:d*e?f"g<h>i|j.JPG`,
			expected: "a_b_c_d_e_f_g_h_i_j.JPG",
		},
		{
			name:     "control characters replaced",
			input:    "IMG\x00\x1f.JPG",
			expected: "IMG__.JPG",
		},
		{
			name:     "unicode folded in ascii mode",
			input:    "Straßenfoto.JPG",
			expected: "Stra_enfoto.JPG",
		},
		{
			name:        "unicode preserved when enabled",
			input:       "Straßenfoto.JPG",
			keepUnicode: true,
			expected:    "Straßenfoto.JPG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clean(tt.input, tt.keepUnicode))
		})
	}
}

func TestComputeFilename_SizeMatrix(t *testing.T) {
	opts := Options{LivePhoto: LivePhotoNameSuffix}

	tests := []struct {
		name     string
		original string
		kind     asset.SizeKind
		typeTag  string
		expected string
	}{
		{"original bare", "IMG_1.JPG", asset.SizeOriginal, "public.jpeg", "IMG_1.JPG"},
		{"alternative bare", "IMG_1.HEIC", asset.SizeAlternative, "public.heic", "IMG_1.HEIC"},
		{"adjusted suffixed", "IMG_1.JPG", asset.SizeAdjusted, "public.jpeg", "IMG_1-adjusted.JPG"},
		{"medium suffixed", "IMG_1.JPG", asset.SizeMedium, "public.jpeg", "IMG_1-medium.JPG"},
		{"thumb suffixed", "IMG_1.JPG", asset.SizeThumb, "public.jpeg", "IMG_1-thumb.JPG"},
		{"raw extension rewritten", "IMG_1.JPG", asset.SizeOriginal, "com.adobe.raw-image", "IMG_1.DNG"},
		{"matching extension kept", "IMG_1.DNG", asset.SizeOriginal, "com.adobe.raw-image", "IMG_1.DNG"},
		{"extension case-insensitive match", "img_1.dng", asset.SizeOriginal, "com.adobe.raw-image", "img_1.dng"},
		{"unknown tag keeps extension", "IMG_1.XYZ", asset.SizeOriginal, "vendor.someformat", "IMG_1.XYZ"},
		{"movie original", "IMG_2.MOV", asset.SizeOriginal, "com.apple.quicktime-movie", "IMG_2.MOV"},
		{"movie medium", "IMG_2.MOV", asset.SizeMedium, "com.apple.quicktime-movie", "IMG_2-medium.MOV"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeFilename(tt.original, tt.kind, tt.typeTag, opts))
		})
	}
}

func TestComputeFilename_LivePhotoPolicies(t *testing.T) {
	tests := []struct {
		name     string
		policy   LivePhotoPolicy
		kind     asset.SizeKind
		expected string
	}{
		{"suffix policy original video", LivePhotoNameSuffix, asset.SizeOriginalVideo, "IMG_1-live.MOV"},
		{"suffix policy medium video", LivePhotoNameSuffix, asset.SizeMediumVideo, "IMG_1-live-medium.MOV"},
		{"suffix policy thumb video", LivePhotoNameSuffix, asset.SizeThumbVideo, "IMG_1-live-thumb.MOV"},
		{"original policy reuses base name", LivePhotoNameOriginal, asset.SizeOriginalVideo, "IMG_1.MOV"},
		{"original policy still bare for medium video", LivePhotoNameOriginal, asset.SizeMediumVideo, "IMG_1.MOV"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeFilename("IMG_1.HEIC", tt.kind, "com.apple.quicktime-movie", Options{LivePhoto: tt.policy})
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestForcedFilename_SuffixesCanonicalKinds(t *testing.T) {
	opts := Options{LivePhoto: LivePhotoNameSuffix}

	assert.Equal(t, "IMG_1-original.JPG",
		ForcedFilename("IMG_1.JPG", asset.SizeOriginal, "public.jpeg", opts))
	assert.Equal(t, "IMG_1-alternative.HEIC",
		ForcedFilename("IMG_1.HEIC", asset.SizeAlternative, "public.heic", opts))
	// A forced live video always carries its suffix, even under the
	// original-name policy.
	assert.Equal(t, "IMG_1-live.MOV",
		ForcedFilename("IMG_1.HEIC", asset.SizeOriginalVideo, "com.apple.quicktime-movie",
			Options{LivePhoto: LivePhotoNameOriginal}))
}

func TestComputeFilename_Deterministic(t *testing.T) {
	opts := Options{KeepUnicode: true, LivePhoto: LivePhotoNameSuffix}
	for _, kind := range asset.AllSizes {
		first := ComputeFilename("Füße*photo.HEIC", kind, "public.heic", opts)
		second := ComputeFilename("Füße*photo.HEIC", kind, "public.heic", opts)
		assert.Equal(t, first, second, "kind %s", kind)
	}
}
