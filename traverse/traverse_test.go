package traverse

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/cargodeps/graph/crate"
	"github.com/cargodeps/graph/store"
)

func edge(to crate.VersionID, optional bool, with ...string) crate.ResolvedEdge {
	return crate.ResolvedEdge{ToVersionID: to, Optional: optional, WithFeatures: with, Kind: crate.Normal}
}

func version(id crate.VersionID, name string, features crate.FeatureMap) crate.CrateVersion {
	return crate.CrateVersion{VersionID: id, CrateName: name, Num: "1.0.0", Features: features}
}

func newFixture(t *testing.T, versions []crate.CrateVersion, edges map[crate.VersionID][]crate.ResolvedEdge) store.Client {
	t.Helper()
	m := store.NewMemoryClient()
	ctx := context.Background()
	if err := m.PutVersions(ctx, versions); err != nil {
		t.Fatal(err)
	}
	for from, es := range edges {
		for i := range es {
			es[i].FromVersionID = from
		}
		if err := m.PutEdges(ctx, es); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func nodeNames(r Result) []string {
	var out []string
	for _, n := range r.Nodes {
		out = append(out, n.CrateName)
	}
	return out
}

// S4 — an optional dependency is pulled in only once a feature names it.
func TestTraverseOptionalGatedByFeature(t *testing.T) {
	root := version(1, "app", crate.FeatureMap{
		"extra": {"dep:helper"},
	})
	helper := version(2, "helper", nil)
	client := newFixture(t, []crate.CrateVersion{root, helper}, map[crate.VersionID][]crate.ResolvedEdge{
		1: {edge(2, true)},
	})

	got, err := Traverse(context.Background(), client, 1, Options{Kinds: crate.NewKindSet(true, true, true)})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"app"}, nodeNames(got)); diff != "" {
		t.Fatalf("without the feature, helper should not appear (-want +got):\n%s", diff)
	}

	got, err = Traverse(context.Background(), client, 1, Options{
		RootFeatures: []string{"extra"},
		Kinds:        crate.NewKindSet(true, true, true),
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"app", "helper"}, nodeNames(got)); diff != "" {
		t.Fatalf("with the feature, helper must appear (-want +got):\n%s", diff)
	}
}

// S5 — conditional propagation only forwards the feature if something else
// already activated the target.
func TestTraverseConditionalPropagate(t *testing.T) {
	root := version(1, "app", crate.FeatureMap{
		"cond-only": {"helper?/fast"},
	})
	helper := version(2, "helper", crate.FeatureMap{"fast": nil})
	client := newFixture(t, []crate.CrateVersion{root, helper}, map[crate.VersionID][]crate.ResolvedEdge{
		1: {edge(2, true)},
	})

	got, err := Traverse(context.Background(), client, 1, Options{
		RootFeatures: []string{"cond-only"},
		Kinds:        crate.NewKindSet(true, true, true),
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"app"}, nodeNames(got)); diff != "" {
		t.Fatalf("conditional propagate must not activate helper by itself (-want +got):\n%s", diff)
	}

	root2 := version(1, "app", crate.FeatureMap{
		"cond-only":   {"helper?/fast"},
		"also-direct": {"dep:helper"},
	})
	client2 := newFixture(t, []crate.CrateVersion{root2, helper}, map[crate.VersionID][]crate.ResolvedEdge{
		1: {edge(2, true)},
	})
	got2, err := Traverse(context.Background(), client2, 1, Options{
		RootFeatures: []string{"cond-only", "also-direct"},
		Kinds:        crate.NewKindSet(true, true, true),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got2.Edges) != 2 {
		t.Fatalf("got %d edges, want 2 (synthetic root + app->helper)", len(got2.Edges))
	}
	last := got2.Edges[len(got2.Edges)-1]
	if diff := cmp.Diff([]string{"fast"}, last.Edge.WithFeatures); diff != "" {
		t.Fatalf("helper edge with_features (-want +got):\n%s", diff)
	}
}

// S6 — a dependency cycle must not hang or duplicate nodes.
func TestTraverseCycleSafety(t *testing.T) {
	a := version(1, "a", nil)
	b := version(2, "b", nil)
	client := newFixture(t, []crate.CrateVersion{a, b}, map[crate.VersionID][]crate.ResolvedEdge{
		1: {edge(2, false)},
		2: {edge(1, false)},
	})

	got, err := Traverse(context.Background(), client, 1, Options{Kinds: crate.NewKindSet(true, true, true)})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2 (a, b each once)", len(got.Nodes))
	}
	if len(got.Edges) != 3 {
		t.Fatalf("got %d edges, want 3 (root->a, a->b, b->a)", len(got.Edges))
	}
}

// Universal property: the synthetic root edge always precedes every other
// edge and carries the root sentinel source handle.
func TestTraverseSyntheticRootEdge(t *testing.T) {
	root := version(1, "solo", nil)
	client := newFixture(t, []crate.CrateVersion{root}, nil)

	got, err := Traverse(context.Background(), client, 1, Options{Kinds: crate.NewKindSet(true, true, true)})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(got.Edges))
	}
	if got.Edges[0].SrcHandle != crate.RootHandle {
		t.Errorf("SrcHandle = %v, want RootHandle", got.Edges[0].SrcHandle)
	}
	if got.Edges[0].DestHandle != got.Nodes[0].NodeHandle {
		t.Errorf("DestHandle = %v, want root's assigned handle %v", got.Edges[0].DestHandle, got.Nodes[0].NodeHandle)
	}
}

// Universal property: an unknown root version is reported as ErrNotFound.
func TestTraverseUnknownRoot(t *testing.T) {
	client := store.NewMemoryClient()
	_, err := Traverse(context.Background(), client, 999, Options{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// Universal property: the dependency-kind filter excludes edges outright,
// before any feature logic runs.
func TestTraverseKindFilter(t *testing.T) {
	root := version(1, "app", nil)
	dev := version(2, "dev-only", nil)

	m := store.NewMemoryClient()
	ctx := context.Background()
	_ = m.PutVersions(ctx, []crate.CrateVersion{root, dev})
	_ = m.PutEdges(ctx, []crate.ResolvedEdge{{FromVersionID: 1, ToVersionID: 2, Kind: crate.Dev}})

	got, err := Traverse(ctx, m, 1, Options{Kinds: crate.NewKindSet(true, true, false)})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"app"}, nodeNames(got)); diff != "" {
		t.Fatalf("dev edge must be excluded (-want +got):\n%s", diff)
	}
}

// Feature expansion must be idempotent: re-expanding an already-expanded
// set returns the same tokens.
func TestExpandFeaturesIdempotent(t *testing.T) {
	fm := crate.FeatureMap{
		"default": {"a", "b"},
		"a":       {"dep:x"},
		"b":       {"y/feat"},
	}
	first := expandFeatures([]string{"default"}, fm)
	second := expandFeatures(first, fm)
	if diff := cmp.Diff(first, second, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("expansion not idempotent (-first +second):\n%s", diff)
	}
}

// Determinism: repeated traversals over the same store produce identical
// results.
func TestTraverseDeterministic(t *testing.T) {
	root := version(1, "app", crate.FeatureMap{"default": {"dep:a", "dep:b"}})
	a := version(2, "a", nil)
	b := version(3, "b", nil)
	client := newFixture(t, []crate.CrateVersion{root, a, b}, map[crate.VersionID][]crate.ResolvedEdge{
		1: {edge(2, true), edge(3, true)},
	})

	opts := Options{RootFeatures: []string{"default"}, Kinds: crate.NewKindSet(true, true, true)}
	first, err := Traverse(context.Background(), client, 1, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Traverse(context.Background(), client, 1, opts)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("traversal not deterministic (-first +second):\n%s", diff)
	}
}
