package store

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cargodeps/graph/crate"
)

// GetVersionRequest/Response and OutgoingDepsRequest/Response are the wire
// messages a generated gRPC client for the property-graph backend would
// carry. They are plain structs rather than full protobuf messages: the
// wire codec for a specific backend (Neo4j, RedisGraph/FalkorDB, a custom
// graph service) is produced by that deployment's own protoc-gen-go-grpc
// output and is out of scope here, exactly as §4.3 describes the graph
// store as "an abstract interface... any backend satisfying them is
// sufficient".
type GetVersionRequest struct {
	VersionID crate.VersionID
}

type GetVersionResponse struct {
	Version      crate.CrateVersion
	FeaturesJSON string
}

type OutgoingDepsRequest struct {
	FromVersionID crate.VersionID
	Kinds         crate.KindSet
}

type OutgoingDepsResponse struct {
	Connections []RawConnection
}

// RawConnection is the wire shape of a Connection before feature decoding:
// the backend returns a version's features as the JSON string it persists,
// matching the property-graph model's lack of nested map properties.
type RawConnection struct {
	Edge         crate.ResolvedEdge
	Node         crate.CrateVersion
	FeaturesJSON string
}

// RemoteService is shaped like a generated gRPC client for the graph store
// service: context first, a request struct, variadic call options, and a
// (response, error) return. A real deployment constructs one from
// protoc-gen-go-grpc output and a *grpc.ClientConn; RemoteClient only
// depends on the interface.
type RemoteService interface {
	GetVersion(ctx context.Context, in *GetVersionRequest, opts ...grpc.CallOption) (*GetVersionResponse, error)
	OutgoingDeps(ctx context.Context, in *OutgoingDepsRequest, opts ...grpc.CallOption) (*OutgoingDepsResponse, error)
}

// RemoteClient adapts a RemoteService to Client, translating transport
// errors into the store's error taxonomy the same way the teacher corpus's
// own APIClient maps codes.NotFound to a sentinel ErrNotFound.
type RemoteClient struct {
	rpc RemoteService
}

// NewRemoteClient wraps rpc as a Client.
func NewRemoteClient(rpc RemoteService) *RemoteClient {
	return &RemoteClient{rpc: rpc}
}

func (r *RemoteClient) GetVersion(ctx context.Context, id crate.VersionID) (crate.CrateVersion, error) {
	resp, err := r.rpc.GetVersion(ctx, &GetVersionRequest{VersionID: id})
	if err != nil {
		return crate.CrateVersion{}, classify(fmt.Sprintf("version %v", id), err)
	}
	v := resp.Version
	features, err := crate.DecodeFeatures(resp.FeaturesJSON)
	if err != nil {
		return crate.CrateVersion{}, fmt.Errorf("version %v: features: %w: %v", id, ErrParse, err)
	}
	v.Features = features
	return v, nil
}

func (r *RemoteClient) OutgoingDeps(ctx context.Context, from crate.VersionID, kinds crate.KindSet) ([]crate.Connection, error) {
	if kinds.Empty() {
		return nil, nil
	}
	resp, err := r.rpc.OutgoingDeps(ctx, &OutgoingDepsRequest{FromVersionID: from, Kinds: kinds})
	if err != nil {
		return nil, classify(fmt.Sprintf("outgoing deps %v", from), err)
	}
	conns := make([]crate.Connection, 0, len(resp.Connections))
	for _, rc := range resp.Connections {
		features, err := crate.DecodeFeatures(rc.FeaturesJSON)
		if err != nil {
			return nil, fmt.Errorf("outgoing deps %v: features: %w: %v", from, ErrParse, err)
		}
		node := rc.Node
		node.Features = features
		conns = append(conns, crate.Connection{Edge: rc.Edge, Node: node})
	}
	return conns, nil
}

// classify maps a gRPC transport error onto the store's error taxonomy.
func classify(op string, err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return wrapBackend(op, err)
}
