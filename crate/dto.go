package crate

import "encoding/json"

// NodeDTO is the wire representation of a CrateVersion node in a traversal
// response.
type NodeDTO struct {
	NodeID    NodeHandle `json:"node_id"`
	ID        VersionID  `json:"id"`
	Num       string     `json:"num"`
	Features  FeatureMap `json:"features"`
	CrateName string     `json:"crate_name"`
}

// EdgeDTO is the wire representation of an activated ResolvedEdge in a
// traversal response.
type EdgeDTO struct {
	SrcNodeID    NodeHandle     `json:"src_node_id"`
	DestNodeID   NodeHandle     `json:"dest_node_id"`
	Optional     bool           `json:"optional"`
	WithFeatures []string       `json:"with_features"`
	Kind         DependencyKind `json:"kind"`
}

// MarshalJSON renders the kind as its persisted integer (0/1/2) rather than
// its string form, matching the HTTP contract in §6.
func (k DependencyKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint8(k))
}

// UnmarshalJSON accepts the persisted integer form of a DependencyKind.
func (k *DependencyKind) UnmarshalJSON(b []byte) error {
	var v uint8
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*k = DependencyKind(v)
	return nil
}

// NodeOf renders a CrateVersion as its wire DTO.
func NodeOf(v CrateVersion) NodeDTO {
	return NodeDTO{
		NodeID:    v.NodeHandle,
		ID:        v.VersionID,
		Num:       v.Num,
		Features:  v.Features,
		CrateName: v.CrateName,
	}
}

// EdgeOf renders an activated connection's edge as its wire DTO, with the
// destination handle taken from the (possibly already-visited) node it was
// folded into.
func EdgeOf(srcHandle, destHandle NodeHandle, e ResolvedEdge) EdgeDTO {
	return EdgeDTO{
		SrcNodeID:    srcHandle,
		DestNodeID:   destHandle,
		Optional:     e.Optional,
		WithFeatures: e.WithFeatures,
		Kind:         e.Kind,
	}
}

// EncodeFeatures renders a FeatureMap as the JSON string a property-graph
// store uses to persist a node property, since such stores generally lack a
// nested-map property type.
func EncodeFeatures(f FeatureMap) (string, error) {
	if f == nil {
		f = FeatureMap{}
	}
	b, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeFeatures parses the JSON string form of a FeatureMap back into its
// in-memory representation.
func DecodeFeatures(s string) (FeatureMap, error) {
	if s == "" {
		return FeatureMap{}, nil
	}
	var f FeatureMap
	if err := json.Unmarshal([]byte(s), &f); err != nil {
		return nil, err
	}
	return f, nil
}
