package naming

import (
	"sort"

	"github.com/photomirror/photomirror/pkg/asset"
	"github.com/photomirror/photomirror/pkg/errors"
)

// Plan decides the final local filename for every requested variant of one
// asset. The result maps each emitted kind to a filename that is pairwise
// distinct within the plan.
//
// Kinds requested but absent from the asset are omitted. When several kinds
// report the same raw filename, the highest-priority member absorbs the bare
// name; members whose checksum matches the primary's are dropped as pure
// duplicates, and the rest are emitted with their size suffix forced on. A
// residual collision after forced suffixing returns ErrNameCollision rather
// than risking a silent overwrite.
func Plan(variants map[asset.SizeKind]asset.Variant, requested []asset.SizeKind, opts Options) (map[asset.SizeKind]string, error) {
	// Restrict to requested kinds present on this asset, dropping duplicates
	// in the request list.
	seen := make(map[asset.SizeKind]bool, len(requested))
	var kinds []asset.SizeKind
	for _, k := range requested {
		if seen[k] || !k.Valid() {
			continue
		}
		seen[k] = true
		if _, ok := variants[k]; ok {
			kinds = append(kinds, k)
		}
	}

	// Group by the raw reported filename.
	groups := make(map[string][]asset.SizeKind)
	for _, k := range kinds {
		raw := variants[k].Filename
		groups[raw] = append(groups[raw], k)
	}

	plan := make(map[asset.SizeKind]string, len(kinds))
	for _, members := range groups {
		sort.Slice(members, func(i, j int) bool {
			return members[i].Priority() < members[j].Priority()
		})

		primary := members[0]
		pv := variants[primary]
		plan[primary] = ComputeFilename(pv.Filename, primary, pv.Type, opts)

		for _, k := range members[1:] {
			v := variants[k]
			if v.Checksum != "" && v.Checksum == pv.Checksum {
				// Same bytes under the same reported name: one physical
				// file is enough.
				continue
			}
			plan[k] = ForcedFilename(v.Filename, k, v.Type, opts)
		}
	}

	if err := checkDistinct(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// checkDistinct verifies the core invariant: no two emitted kinds share a
// final filename. This should be unreachable with a correct priority table;
// it exists because the failure mode would be silent data loss.
func checkDistinct(plan map[asset.SizeKind]string) error {
	byName := make(map[string]asset.SizeKind, len(plan))
	for k, name := range plan {
		if other, dup := byName[name]; dup {
			return errors.Wrapf(errors.ErrNameCollision, "%s and %s both resolve to %q", other, k, name)
		}
		byName[name] = k
	}
	return nil
}
