package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/cargodeps/graph/crate"
)

// MemoryClient is an in-process graph store snapshot. It is the reference
// implementation used by cmd/cargograph-ingest for single-process
// deployments, by the -fixture mode of cmd/cargograph-server, and by every
// test in this module that needs a Client. It is safe for concurrent reads;
// writes must complete before any traversal begins, matching the "ingest
// runs once, traversal is read-only" lifecycle.
type MemoryClient struct {
	mu sync.RWMutex

	crates   map[crate.CrateID]crate.Crate
	versions map[crate.VersionID]crate.CrateVersion
	outgoing map[crate.VersionID][]crate.ResolvedEdge

	firstVersion  map[crate.CrateID]crate.VersionID
	latestVersion map[crate.CrateID]crate.VersionID

	nextHandle crate.NodeHandle
}

// NewMemoryClient returns an empty store ready to be populated by a Writer
// call sequence.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		crates:        make(map[crate.CrateID]crate.Crate),
		versions:      make(map[crate.VersionID]crate.CrateVersion),
		outgoing:      make(map[crate.VersionID][]crate.ResolvedEdge),
		firstVersion:  make(map[crate.CrateID]crate.VersionID),
		latestVersion: make(map[crate.CrateID]crate.VersionID),
	}
}

func (m *MemoryClient) PutCrates(_ context.Context, crates []crate.Crate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range crates {
		m.crates[c.ID] = c
	}
	return nil
}

func (m *MemoryClient) PutUsers(_ context.Context, _ []crate.UserNode) error {
	// Users are not read by the traversal engine or the edge resolver, and
	// this store discards them. No PUBLISHED relation between users and
	// versions is recorded: crate.UserNode carries no version link.
	return nil
}

// PutVersions assigns each version a stable NodeHandle in insertion order
// and stores it, resolving CrateName from a previously-put Crate when
// possible.
func (m *MemoryClient) PutVersions(_ context.Context, versions []crate.CrateVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range versions {
		if v.CrateName == "" {
			if c, ok := m.crates[v.CrateID]; ok {
				v.CrateName = c.Name
			}
		}
		m.nextHandle++
		v.NodeHandle = m.nextHandle
		m.versions[v.VersionID] = v
	}
	return nil
}

func (m *MemoryClient) PutEdges(_ context.Context, edges []crate.ResolvedEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range edges {
		m.outgoing[e.FromVersionID] = append(m.outgoing[e.FromVersionID], e)
	}
	return nil
}

// PutFirstLastVersion implements Writer.
func (m *MemoryClient) PutFirstLastVersion(_ context.Context, firsts []crate.FirstVersionEdge, latests []crate.LatestVersionEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range firsts {
		m.firstVersion[f.CrateID] = f.VersionID
	}
	for _, l := range latests {
		m.latestVersion[l.CrateID] = l.VersionID
	}
	return nil
}

// GetVersion implements Client.
func (m *MemoryClient) GetVersion(_ context.Context, id crate.VersionID) (crate.CrateVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.versions[id]
	if !ok {
		return crate.CrateVersion{}, fmt.Errorf("version %d: %w", id, ErrNotFound)
	}
	return v, nil
}

// Snapshot is a JSON-friendly dump of a MemoryClient, written by
// cmd/cargograph-ingest's -dump flag and read back by
// cmd/cargograph-server's -fixture flag.
type Snapshot struct {
	Crates   []crate.Crate        `json:"crates"`
	Versions []crate.CrateVersion `json:"versions"`
	Edges    []crate.ResolvedEdge `json:"edges"`
}

// Snapshot renders the current store contents for serialization.
func (m *MemoryClient) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		Crates:   make([]crate.Crate, 0, len(m.crates)),
		Versions: make([]crate.CrateVersion, 0, len(m.versions)),
	}
	for _, c := range m.crates {
		s.Crates = append(s.Crates, c)
	}
	for _, v := range m.versions {
		s.Versions = append(s.Versions, v)
	}
	for _, edges := range m.outgoing {
		s.Edges = append(s.Edges, edges...)
	}
	return s
}

// OutgoingDeps implements Client.
func (m *MemoryClient) OutgoingDeps(_ context.Context, from crate.VersionID, kinds crate.KindSet) ([]crate.Connection, error) {
	if kinds.Empty() {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	edges := m.outgoing[from]
	conns := make([]crate.Connection, 0, len(edges))
	for _, e := range edges {
		if !kinds.Has(e.Kind) {
			continue
		}
		dest, ok := m.versions[e.ToVersionID]
		if !ok {
			return nil, fmt.Errorf("dependency %d->%d: destination node: %w", from, e.ToVersionID, ErrParse)
		}
		conns = append(conns, crate.Connection{Edge: e, Node: dest})
	}
	return conns, nil
}
