// Package store defines the graph store adapter boundary: the two
// operations the traversal engine needs (get a version, list its outgoing
// dependencies) and the write-side counterpart used by ingest. The
// in-process snapshot (MemoryClient) satisfies both interfaces; the adapter
// for a remote service (RemoteClient) satisfies Client only.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/cargodeps/graph/crate"
)

// ErrNotFound is returned when a requested version does not exist in the
// store.
var ErrNotFound = errors.New("not found")

// ErrBackend wraps an underlying I/O failure talking to the store. Callers
// may retry at their discretion.
var ErrBackend = errors.New("backend error")

// ErrParse indicates a stored node or edge's attributes could not be
// decoded; it signals an ingest bug rather than a user error.
var ErrParse = errors.New("parse error")

// Client is the read-only interface the traversal engine depends on.
type Client interface {
	// GetVersion finds a particular version by id, including its
	// decoded feature map.
	GetVersion(ctx context.Context, id crate.VersionID) (crate.CrateVersion, error)
	// OutgoingDeps returns every DEPENDS_ON connection leaving the given
	// version whose kind is in kinds, paired with their destination
	// nodes. An empty kinds set yields no connections.
	OutgoingDeps(ctx context.Context, from crate.VersionID, kinds crate.KindSet) ([]crate.Connection, error)
}

// Writer is the write-side interface used once by ingest to persist the
// output of the edge resolver. It is kept separate from Client because
// ingest is write-once and traversal is strictly read-only (no traversal
// ever mutates the store).
type Writer interface {
	PutCrates(ctx context.Context, crates []crate.Crate) error
	PutUsers(ctx context.Context, users []crate.UserNode) error
	PutVersions(ctx context.Context, versions []crate.CrateVersion) error
	PutEdges(ctx context.Context, edges []crate.ResolvedEdge) error
	// PutFirstLastVersion persists the FIRST_VERSION/LATEST_VERSION
	// pointers ingest computes per crate. No Client method reads them
	// back, and MemoryClient's Snapshot does not include them.
	PutFirstLastVersion(ctx context.Context, firsts []crate.FirstVersionEdge, latests []crate.LatestVersionEdge) error
}

// wrapBackend wraps err, if non-nil, so that errors.Is(err, ErrBackend)
// holds, unless err already carries a more specific sentinel.
func wrapBackend(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrParse) {
		return err
	}
	return fmt.Errorf("store: %s: %w: %v", op, ErrBackend, err)
}
