// Package resolver implements the offline dependency edge resolver: it
// turns raw (crate, semver requirement) dependency rows into concrete
// version-to-version edges by a greedy, one-level "newest matching" pick.
// It does not backtrack: each dependency row is resolved on its own,
// independently of the picks made for any other row.
package resolver

import (
	"github.com/Masterminds/semver/v3"

	"github.com/cargodeps/graph/crate"
)

// Stats records what happened during a Resolve call: the rows seen, the
// edges emitted, and, in the Dropped* counts, the rows that were silently
// dropped rather than causing the whole ingest batch to fail — the upstream relational dump contains
// historically invalid requirements and unparseable versions, and a fatal
// policy would break ingest for the entire crate graph over one bad row.
type Stats struct {
	VersionRows           int
	DependencyRows        int
	EdgesEmitted          int
	DroppedUnparseableNum int
	DroppedBadRequirement int
	DroppedNoMatchingVer  int
}

// candidate is a parsed version paired with the VersionID it came from.
type candidate struct {
	version   *semver.Version
	versionID crate.VersionID
}

// Resolve builds the candidate index from versions (which must be ordered
// by VersionID, non-decreasing in semver order per crate by contract) and
// greedily picks, for each RawDependency, the highest VersionID candidate
// of its target crate whose parsed semver satisfies the requirement.
//
// Output edges are returned in the input order of deps, modulo rows that
// were silently dropped.
func Resolve(versions []crate.CrateVersion, deps []crate.RawDependency) ([]crate.ResolvedEdge, Stats) {
	var stats Stats
	stats.VersionRows = len(versions)
	stats.DependencyRows = len(deps)

	index := buildCandidateIndex(versions, &stats)

	edges := make([]crate.ResolvedEdge, 0, len(deps))
	for _, dep := range deps {
		constraint, err := semver.NewConstraint(dep.RequiredSemver)
		if err != nil {
			stats.DroppedBadRequirement++
			continue
		}

		pick, ok := pickBest(index[dep.ToCrateID], constraint)
		if !ok {
			stats.DroppedNoMatchingVer++
			continue
		}

		edges = append(edges, crate.ResolvedEdge{
			FromVersionID:   dep.FromVersionID,
			ToVersionID:     pick,
			Optional:        dep.Optional,
			DefaultFeatures: dep.DefaultFeatures,
			WithFeatures:    dep.WithFeatures,
			Target:          dep.Target,
			Kind:            dep.Kind,
		})
		stats.EdgesEmitted++
	}

	return edges, stats
}

// buildCandidateIndex populates a crate_id -> ordered candidate slice
// mapping, skipping any version row whose Num is not parseable as semver.
func buildCandidateIndex(versions []crate.CrateVersion, stats *Stats) map[crate.CrateID][]candidate {
	index := make(map[crate.CrateID][]candidate)
	for _, v := range versions {
		parsed, err := semver.NewVersion(v.Num)
		if err != nil {
			stats.DroppedUnparseableNum++
			continue
		}
		index[v.CrateID] = append(index[v.CrateID], candidate{version: parsed, versionID: v.VersionID})
	}
	return index
}

// pickBest walks candidates from highest to lowest (candidates are ordered
// by VersionID ascending, which by contract is non-decreasing semver order)
// and returns the first one satisfying constraint.
func pickBest(candidates []candidate, constraint *semver.Constraints) (crate.VersionID, bool) {
	for i := len(candidates) - 1; i >= 0; i-- {
		if constraint.Check(candidates[i].version) {
			return candidates[i].versionID, true
		}
	}
	return 0, false
}
