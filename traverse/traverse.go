// Package traverse implements the feature-aware graph traversal engine:
// starting from a root version and a requested feature set, it expands
// features recursively, activates the dependency edges they reach
// (including optional ones gated behind features), and returns the induced
// subgraph.
package traverse

import (
	"context"
	"errors"
	"fmt"

	"github.com/cargodeps/graph/crate"
	"github.com/cargodeps/graph/store"
)

// Sentinel errors surfaced to callers. They wrap the underlying store error
// so that both errors.Is(err, traverse.ErrNotFound) and the original cause
// remain inspectable.
var (
	ErrNotFound = errors.New("root version not found")
	ErrBackend  = errors.New("graph store unavailable")
	ErrParse    = errors.New("corrupt graph data")
)

// maxFeatureDepth bounds feature-expansion recursion. Cargo feature graphs
// are shallow in practice; this exists only to keep a pathological or
// malformed features map from causing a stack overflow. Past the cap, a
// token is emitted as-is instead of being expanded further.
const maxFeatureDepth = 256

// Options configures a single traversal request.
type Options struct {
	// RootFeatures are the feature tokens explicitly requested for the
	// root version.
	RootFeatures []string
	// IncludeDefault adds the literal feature "default" to RootFeatures.
	IncludeDefault bool
	// Kinds selects which dependency kinds participate in the walk.
	Kinds crate.KindSet
}

// ActivatedEdge is an edge included in a traversal's result, annotated with
// the node handles it connects (the source handle may be crate.RootHandle
// for the synthetic entry edge that introduces the root).
type ActivatedEdge struct {
	SrcHandle  crate.NodeHandle
	DestHandle crate.NodeHandle
	Edge       crate.ResolvedEdge
}

// Result is the induced subgraph returned by Traverse: every version
// reached, and every edge activated to reach it.
type Result struct {
	Nodes []crate.CrateVersion
	Edges []ActivatedEdge
}

// pendingEntry is a unit of work: a node together with the feature set
// requested for it by whichever edge led to it.
type pendingEntry struct {
	node      crate.CrateVersion
	requested []string
}

// activatedConn is a connection selected for inclusion by traverseNode,
// still carrying its destination node so the outer loop can decide whether
// it has been visited before.
type activatedConn struct {
	edge crate.ResolvedEdge
	node crate.CrateVersion
}

// Traverse runs the traversal engine described in the package doc and
// returns the reached subgraph.
func Traverse(ctx context.Context, client store.Client, root crate.VersionID, opts Options) (Result, error) {
	rootVersion, err := client.GetVersion(ctx, root)
	if err != nil {
		return Result{}, classifyStoreErr(fmt.Sprintf("root version %v", root), err)
	}

	wanted := make([]string, 0, len(opts.RootFeatures)+1)
	wanted = append(wanted, opts.RootFeatures...)
	if opts.IncludeDefault {
		wanted = append(wanted, "default")
	}

	visited := []crate.CrateVersion{rootVersion}
	output := []ActivatedEdge{{
		SrcHandle:  crate.RootHandle,
		DestHandle: rootVersion.NodeHandle,
		Edge:       crate.ResolvedEdge{WithFeatures: wanted},
	}}
	pending := []pendingEntry{{node: rootVersion, requested: wanted}}

	for len(pending) > 0 {
		entry := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		conns, err := traverseNode(ctx, client, entry, opts.Kinds)
		if err != nil {
			return Result{}, err
		}

		for _, c := range conns {
			srcHandle := entry.node.NodeHandle
			if idx := visitedIndex(visited, c.node.NodeHandle); idx >= 0 {
				output = append(output, ActivatedEdge{
					SrcHandle:  srcHandle,
					DestHandle: visited[idx].NodeHandle,
					Edge:       c.edge,
				})
				continue
			}
			visited = append(visited, c.node)
			output = append(output, ActivatedEdge{
				SrcHandle:  srcHandle,
				DestHandle: c.node.NodeHandle,
				Edge:       c.edge,
			})
			pending = append(pending, pendingEntry{node: c.node, requested: c.edge.WithFeatures})
		}
	}

	return Result{Nodes: visited, Edges: output}, nil
}

// traverseNode expands a single node's requested feature set against its
// one-hop dependencies, implementing §4.2's six-step activation algorithm.
func traverseNode(ctx context.Context, client store.Client, entry pendingEntry, kinds crate.KindSet) ([]activatedConn, error) {
	conns, err := client.OutgoingDeps(ctx, entry.node.VersionID, kinds)
	if err != nil {
		return nil, classifyStoreErr(fmt.Sprintf("outgoing deps of %v", entry.node.VersionID), err)
	}

	candidates := make([]activatedConn, len(conns))
	for i, c := range conns {
		cl := c.Clone()
		candidates[i] = activatedConn{edge: cl.Edge, node: cl.Node}
	}

	var activated []activatedConn
	isActivated := func(h crate.NodeHandle) bool {
		for _, a := range activated {
			if a.node.NodeHandle == h {
				return true
			}
		}
		return false
	}

	// Step 3: unconditional activation.
	for _, c := range candidates {
		if !c.edge.Optional {
			activated = append(activated, c)
		}
	}

	// Step 4: feature closure over the node's local feature mapping.
	expanded := expandFeatures(entry.requested, entry.node.Features)

	// Step 5, bucket A: activation tokens ("name", "dep:name").
	for _, tok := range expanded {
		kind, name, _, _ := crate.ParseFeatureToken(tok)
		if kind != crate.TokenActivation {
			continue
		}
		for _, c := range candidates {
			if c.node.CrateName == name && !isActivated(c.node.NodeHandle) {
				activated = append(activated, c)
			}
		}
	}

	// Step 5, bucket B: activate-and-propagate ("pkg/feat").
	for _, tok := range expanded {
		kind, pkg, feat, _ := crate.ParseFeatureToken(tok)
		if kind != crate.TokenPropagate {
			continue
		}
		for _, c := range candidates {
			if c.node.CrateName != pkg {
				continue
			}
			if !isActivated(c.node.NodeHandle) {
				activated = append(activated, c)
			}
			appendFeatureTo(activated, c.node.NodeHandle, feat)
		}
	}

	// Step 5, bucket C: conditional propagate ("pkg?/feat").
	for _, tok := range expanded {
		kind, pkg, feat, _ := crate.ParseFeatureToken(tok)
		if kind != crate.TokenConditionalPropagate {
			continue
		}
		for _, c := range candidates {
			if c.node.CrateName != pkg {
				continue
			}
			if !isActivated(c.node.NodeHandle) {
				continue
			}
			appendFeatureTo(activated, c.node.NodeHandle, feat)
		}
	}

	return activated, nil
}

// appendFeatureTo appends feat to the WithFeatures of the first activated
// entry whose destination node matches handle.
func appendFeatureTo(activated []activatedConn, handle crate.NodeHandle, feat string) {
	for i := range activated {
		if activated[i].node.NodeHandle == handle {
			activated[i].edge.WithFeatures = append(activated[i].edge.WithFeatures, feat)
			return
		}
	}
}

// expandFeatures computes the union, in first-occurrence order, of
// expand(f, features) for every f in requested.
func expandFeatures(requested []string, features crate.FeatureMap) []string {
	seen := make(map[string]bool, len(requested))
	out := make([]string, 0, len(requested))
	emit := func(tok string) {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}

	var expand func(tok string, depth int)
	expand = func(tok string, depth int) {
		toks, ok := features[tok]
		if !ok || depth > maxFeatureDepth {
			emit(tok)
			return
		}
		for _, t := range toks {
			if crate.IsExternalToken(t) {
				emit(t)
			} else {
				expand(t, depth+1)
			}
		}
	}
	for _, f := range requested {
		expand(f, 0)
	}
	return out
}

func visitedIndex(visited []crate.CrateVersion, handle crate.NodeHandle) int {
	for i, v := range visited {
		if v.NodeHandle == handle {
			return i
		}
	}
	return -1
}

// classifyStoreErr maps a store.Client error onto this package's sentinel
// taxonomy.
func classifyStoreErr(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case errors.Is(err, store.ErrParse):
		return fmt.Errorf("%s: %w: %w", op, ErrParse, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrBackend, err)
	}
}
