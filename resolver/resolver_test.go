package resolver

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cargodeps/graph/crate"
)

func quickVersion(id, crateID int32, num string) crate.CrateVersion {
	return crate.CrateVersion{
		VersionID: crate.VersionID(id),
		CrateID:   crate.CrateID(crateID),
		Num:       num,
	}
}

func quickDep(toCrate int32, req string) crate.RawDependency {
	return crate.RawDependency{
		FromVersionID:  1,
		ToCrateID:      crate.CrateID(toCrate),
		RequiredSemver: req,
		Kind:           crate.Normal,
	}
}

func quickEdge(to int32) crate.ResolvedEdge {
	return crate.ResolvedEdge{
		FromVersionID: 1,
		ToVersionID:   crate.VersionID(to),
		Kind:          crate.Normal,
	}
}

// S1/S2 — resolver basic and exact upper bound.
func TestResolveBasic(t *testing.T) {
	versions := []crate.CrateVersion{
		quickVersion(1, 1, "1.0.0"),
		quickVersion(2, 1, "1.1.0"),
		quickVersion(3, 1, "1.2.0"),
	}

	got, stats := Resolve(versions, []crate.RawDependency{quickDep(1, "^1.0.0")})
	want := []crate.ResolvedEdge{quickEdge(3)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("^1.0.0 mismatch (-want +got):\n%s", diff)
	}
	if stats.EdgesEmitted != 1 {
		t.Fatalf("EdgesEmitted = %d, want 1", stats.EdgesEmitted)
	}

	got, _ = Resolve(versions, []crate.RawDependency{quickDep(1, "<=1.0.0")})
	want = []crate.ResolvedEdge{quickEdge(1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("<=1.0.0 mismatch (-want +got):\n%s", diff)
	}
}

// S3 — resolver multi, across two crates.
func TestResolveMulti(t *testing.T) {
	versions := []crate.CrateVersion{
		quickVersion(1, 1, "1.0.0"),
		quickVersion(2, 1, "1.1.0"),
		quickVersion(3, 1, "1.2.0"),
		quickVersion(4, 2, "2.0.0"),
		quickVersion(5, 2, "2.1.0"),
	}
	deps := []crate.RawDependency{
		quickDep(1, "^1.0.0"),
		quickDep(1, ">=1.0.0"),
		quickDep(1, "~1.0.0"),
		quickDep(2, "^2.0.0"),
		quickDep(2, "~2.0.0"),
	}
	got, stats := Resolve(versions, deps)

	wantTargets := []int32{3, 3, 1, 5, 4}
	if len(got) != len(wantTargets) {
		t.Fatalf("got %d edges, want %d", len(got), len(wantTargets))
	}
	for i, e := range got {
		if int32(e.ToVersionID) != wantTargets[i] {
			t.Errorf("edge %d: ToVersionID = %d, want %d", i, e.ToVersionID, wantTargets[i])
		}
	}
	if stats.EdgesEmitted != 5 {
		t.Fatalf("EdgesEmitted = %d, want 5", stats.EdgesEmitted)
	}
}

func TestResolveDropsUnparseableVersion(t *testing.T) {
	versions := []crate.CrateVersion{
		quickVersion(1, 1, "not-a-semver"),
		quickVersion(2, 1, "1.0.0"),
	}
	got, stats := Resolve(versions, []crate.RawDependency{quickDep(1, "^1.0.0")})
	if diff := cmp.Diff([]crate.ResolvedEdge{quickEdge(2)}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if stats.DroppedUnparseableNum != 1 {
		t.Fatalf("DroppedUnparseableNum = %d, want 1", stats.DroppedUnparseableNum)
	}
}

func TestResolveDropsBadRequirement(t *testing.T) {
	versions := []crate.CrateVersion{quickVersion(1, 1, "1.0.0")}
	got, stats := Resolve(versions, []crate.RawDependency{quickDep(1, "not a requirement")})
	if len(got) != 0 {
		t.Fatalf("got %d edges, want 0", len(got))
	}
	if stats.DroppedBadRequirement != 1 {
		t.Fatalf("DroppedBadRequirement = %d, want 1", stats.DroppedBadRequirement)
	}
}

func TestResolveDropsNoMatch(t *testing.T) {
	versions := []crate.CrateVersion{quickVersion(1, 1, "1.0.0")}
	got, stats := Resolve(versions, []crate.RawDependency{quickDep(1, "^2.0.0")})
	if len(got) != 0 {
		t.Fatalf("got %d edges, want 0", len(got))
	}
	if stats.DroppedNoMatchingVer != 1 {
		t.Fatalf("DroppedNoMatchingVer = %d, want 1", stats.DroppedNoMatchingVer)
	}
}

// Output order must equal input order of RawDependency rows.
func TestResolvePreservesOrder(t *testing.T) {
	versions := []crate.CrateVersion{
		quickVersion(1, 1, "1.0.0"),
		quickVersion(2, 2, "1.0.0"),
		quickVersion(3, 3, "1.0.0"),
	}
	deps := []crate.RawDependency{
		quickDep(3, "^1.0.0"),
		quickDep(1, "^1.0.0"),
		quickDep(2, "^1.0.0"),
	}
	got, _ := Resolve(versions, deps)
	wantTargets := []int32{3, 1, 2}
	for i, e := range got {
		if int32(e.ToVersionID) != wantTargets[i] {
			t.Errorf("edge %d: ToVersionID = %d, want %d", i, e.ToVersionID, wantTargets[i])
		}
	}
}
