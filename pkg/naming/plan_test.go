package naming

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photomirror/photomirror/pkg/asset"
	"github.com/photomirror/photomirror/pkg/errors"
)

var planOpts = Options{LivePhoto: LivePhotoNameSuffix}

func variant(kind asset.SizeKind, filename, typeTag, checksum string) asset.Variant {
	return asset.Variant{Kind: kind, Filename: filename, Type: typeTag, Checksum: checksum}
}

func TestPlan_SharedNameKeepsHighestPriorityBare(t *testing.T) {
	// Scenario: original and adjusted both report IMG_1.JPG.
	variants := map[asset.SizeKind]asset.Variant{
		asset.SizeOriginal: variant(asset.SizeOriginal, "IMG_1.JPG", "public.jpeg", "aaa"),
		asset.SizeAdjusted: variant(asset.SizeAdjusted, "IMG_1.JPG", "public.jpeg", "bbb"),
	}

	plan, err := Plan(variants, []asset.SizeKind{asset.SizeOriginal, asset.SizeAdjusted}, planOpts)
	require.NoError(t, err)

	assert.Equal(t, map[asset.SizeKind]string{
		asset.SizeOriginal: "IMG_1.JPG",
		asset.SizeAdjusted: "IMG_1-adjusted.JPG",
	}, plan)
}

func TestPlan_DistinctNamesEmittedUnsuffixed(t *testing.T) {
	// Scenario: a raw original plus an alternative in a different format.
	variants := map[asset.SizeKind]asset.Variant{
		asset.SizeOriginal:    variant(asset.SizeOriginal, "IMG_1.DNG", "com.adobe.raw-image", "aaa"),
		asset.SizeAlternative: variant(asset.SizeAlternative, "IMG_1.HEIC", "public.heic", "bbb"),
	}

	plan, err := Plan(variants, []asset.SizeKind{asset.SizeOriginal, asset.SizeAlternative}, planOpts)
	require.NoError(t, err)

	assert.Equal(t, map[asset.SizeKind]string{
		asset.SizeOriginal:    "IMG_1.DNG",
		asset.SizeAlternative: "IMG_1.HEIC",
	}, plan)
}

func TestPlan_SoleAlternativeKeepsBareName(t *testing.T) {
	// Scenario: only the alternative exists and is requested.
	variants := map[asset.SizeKind]asset.Variant{
		asset.SizeAlternative: variant(asset.SizeAlternative, "IMG_1.HEIC", "public.heic", "aaa"),
	}

	plan, err := Plan(variants, []asset.SizeKind{asset.SizeOriginal, asset.SizeAlternative}, planOpts)
	require.NoError(t, err)

	assert.Equal(t, map[asset.SizeKind]string{
		asset.SizeAlternative: "IMG_1.HEIC",
	}, plan)
}

func TestPlan_AbsentRequestedKindsOmitted(t *testing.T) {
	variants := map[asset.SizeKind]asset.Variant{
		asset.SizeOriginal: variant(asset.SizeOriginal, "IMG_1.JPG", "public.jpeg", "aaa"),
	}

	plan, err := Plan(variants,
		[]asset.SizeKind{asset.SizeOriginal, asset.SizeMedium, asset.SizeThumb}, planOpts)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "IMG_1.JPG", plan[asset.SizeOriginal])
}

func TestPlan_PureDuplicateDropped(t *testing.T) {
	// Same reported name and same checksum: one physical file is enough.
	variants := map[asset.SizeKind]asset.Variant{
		asset.SizeOriginal:    variant(asset.SizeOriginal, "IMG_1.HEIC", "public.heic", "same"),
		asset.SizeAlternative: variant(asset.SizeAlternative, "IMG_1.HEIC", "public.heic", "same"),
	}

	plan, err := Plan(variants, []asset.SizeKind{asset.SizeOriginal, asset.SizeAlternative}, planOpts)
	require.NoError(t, err)

	assert.Equal(t, map[asset.SizeKind]string{
		asset.SizeOriginal: "IMG_1.HEIC",
	}, plan)
}

func TestPlan_SuffixedNameNextToForcedSuffix(t *testing.T) {
	// A raw name that already looks like a forced output must still come out
	// distinct, because singleton groups get their own suffix on top.
	variants := map[asset.SizeKind]asset.Variant{
		asset.SizeOriginal: variant(asset.SizeOriginal, "IMG_1.JPG", "public.jpeg", "aaa"),
		asset.SizeAdjusted: variant(asset.SizeAdjusted, "IMG_1.JPG", "public.jpeg", "bbb"),
		asset.SizeMedium:   variant(asset.SizeMedium, "IMG_1-adjusted.JPG", "public.jpeg", "ccc"),
	}

	plan, err := Plan(variants,
		[]asset.SizeKind{asset.SizeOriginal, asset.SizeAdjusted, asset.SizeMedium}, planOpts)
	require.NoError(t, err)
	assert.Equal(t, "IMG_1.JPG", plan[asset.SizeOriginal])
	assert.Equal(t, "IMG_1-adjusted.JPG", plan[asset.SizeAdjusted])
	assert.Equal(t, "IMG_1-adjusted-medium.JPG", plan[asset.SizeMedium])
}

func TestPlan_ResidualCollisionIsHardError(t *testing.T) {
	// Pathological case: adjusted shares the original's raw name and is
	// forced to IMG_1-adjusted.JPG, while a lone alternative already reports
	// exactly that name and keeps it bare. Must fail loudly.
	variants := map[asset.SizeKind]asset.Variant{
		asset.SizeOriginal:    variant(asset.SizeOriginal, "IMG_1.JPG", "public.jpeg", "aaa"),
		asset.SizeAdjusted:    variant(asset.SizeAdjusted, "IMG_1.JPG", "public.jpeg", "bbb"),
		asset.SizeAlternative: variant(asset.SizeAlternative, "IMG_1-adjusted.JPG", "public.jpeg", "ccc"),
	}

	_, err := Plan(variants,
		[]asset.SizeKind{asset.SizeOriginal, asset.SizeAdjusted, asset.SizeAlternative}, planOpts)
	assert.ErrorIs(t, err, errors.ErrNameCollision)
}

func TestCheckDistinct_Collision(t *testing.T) {
	// The residual-collision guard is a hard error, never a silent overwrite.
	err := checkDistinct(map[asset.SizeKind]string{
		asset.SizeOriginal: "IMG_1.JPG",
		asset.SizeAdjusted: "IMG_1.JPG",
	})
	assert.ErrorIs(t, err, errors.ErrNameCollision)
}

func TestPlan_LivePhotoOriginalPolicyAcceptsBaseReuse(t *testing.T) {
	variants := map[asset.SizeKind]asset.Variant{
		asset.SizeOriginal:      variant(asset.SizeOriginal, "IMG_1.HEIC", "public.heic", "aaa"),
		asset.SizeOriginalVideo: variant(asset.SizeOriginalVideo, "IMG_1_HEVC.MOV", "com.apple.quicktime-movie", "bbb"),
	}

	plan, err := Plan(variants,
		[]asset.SizeKind{asset.SizeOriginal, asset.SizeOriginalVideo},
		Options{LivePhoto: LivePhotoNameOriginal})
	require.NoError(t, err)

	assert.Equal(t, "IMG_1.HEIC", plan[asset.SizeOriginal])
	assert.Equal(t, "IMG_1_HEVC.MOV", plan[asset.SizeOriginalVideo])
}

func TestPlan_PairwiseDistinctProperty(t *testing.T) {
	// Randomized sweep over size subsets, shared raw names and checksums:
	// every produced plan must have pairwise distinct filenames, and
	// replanning the same input must reproduce it exactly.
	rng := rand.New(rand.NewSource(42))
	names := []string{"IMG_1.JPG", "IMG_1.HEIC", "IMG_2.JPG", "IMG_1.DNG"}
	tags := []string{"public.jpeg", "public.heic", "com.adobe.raw-image"}
	sums := []string{"s1", "s2", "s3"}

	for i := 0; i < 500; i++ {
		variants := make(map[asset.SizeKind]asset.Variant)
		var requested []asset.SizeKind
		for _, kind := range asset.AllSizes {
			if rng.Intn(2) == 0 {
				continue
			}
			variants[kind] = variant(kind,
				names[rng.Intn(len(names))],
				tags[rng.Intn(len(tags))],
				sums[rng.Intn(len(sums))])
			if rng.Intn(4) > 0 {
				requested = append(requested, kind)
			}
		}

		plan, err := Plan(variants, requested, planOpts)
		if err != nil {
			// A hard collision error is an acceptable outcome; a silently
			// colliding plan is not.
			require.ErrorIs(t, err, errors.ErrNameCollision, "iteration %d", i)
			continue
		}

		seen := make(map[string]asset.SizeKind)
		for kind, name := range plan {
			prev, dup := seen[name]
			require.False(t, dup, "iteration %d: %s and %s share %q", i, prev, kind, name)
			seen[name] = kind
		}

		again, err := Plan(variants, requested, planOpts)
		require.NoError(t, err)
		assert.Equal(t, plan, again, "iteration %d: plan not deterministic", i)
	}
}

func TestPlan_OnlyRequestedKindsEmitted(t *testing.T) {
	variants := make(map[asset.SizeKind]asset.Variant)
	for j, kind := range asset.AllSizes {
		variants[kind] = variant(kind, fmt.Sprintf("IMG_%d.JPG", j), "public.jpeg", fmt.Sprintf("c%d", j))
	}

	plan, err := Plan(variants, []asset.SizeKind{asset.SizeMedium}, planOpts)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Contains(t, plan, asset.SizeMedium)
}
