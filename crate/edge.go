package crate

// RawDependency is an ingest-time row describing a requirement from a
// source version to a target crate, before the edge resolver has picked a
// concrete target version.
type RawDependency struct {
	FromVersionID   VersionID
	ToCrateID       CrateID
	RequiredSemver  string
	Optional        bool
	DefaultFeatures bool
	WithFeatures    []string
	Target          string // platform predicate, carried verbatim; may be empty
	Kind            DependencyKind
}

// ResolvedEdge is a concrete version-to-version edge produced by the
// resolver. Both endpoints are guaranteed to exist as CrateVersion nodes.
type ResolvedEdge struct {
	FromVersionID   VersionID
	ToVersionID     VersionID
	Optional        bool
	DefaultFeatures bool
	WithFeatures    []string
	Target          string
	Kind            DependencyKind
}

// Connection pairs a ResolvedEdge with the CrateVersion it points at. It is
// the unit the traversal engine and the graph store exchange for one-hop
// queries.
type Connection struct {
	Edge ResolvedEdge
	Node CrateVersion
}

// Clone returns a deep-enough copy of the connection so that callers may
// mutate WithFeatures without aliasing another connection's slice.
func (c Connection) Clone() Connection {
	wf := make([]string, len(c.Edge.WithFeatures))
	copy(wf, c.Edge.WithFeatures)
	c.Edge.WithFeatures = wf
	return c
}

// FirstVersionEdge records the FIRST_VERSION relation: the earliest
// (lowest VersionID) version of a crate, computed once at ingest time from
// the ordered version list.
type FirstVersionEdge struct {
	CrateID   CrateID
	VersionID VersionID
}

// LatestVersionEdge records the LATEST_VERSION relation: the newest version
// of a crate at ingest time.
type LatestVersionEdge struct {
	CrateID   CrateID
	VersionID VersionID
}
