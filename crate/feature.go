package crate

import "strings"

// FeatureTokenKind classifies the four shapes a feature token may take.
type FeatureTokenKind int

const (
	// TokenActivation is a bare "name" or "dep:name" token: it either
	// expands a local feature recursively, or activates the
	// same-named dependency directly.
	TokenActivation FeatureTokenKind = iota
	// TokenPropagate is a "pkg/feat" token: activates pkg and
	// propagates feat to it.
	TokenPropagate
	// TokenConditionalPropagate is a "pkg?/feat" token: propagates feat
	// to pkg only if pkg is already activated by some other rule.
	TokenConditionalPropagate
)

// ParseFeatureToken classifies a feature token and extracts its parts.
// For TokenActivation, name is the token with any "dep:" prefix stripped and
// isDepPrefixed reports whether that prefix was present. For the other two
// kinds, name is the crate name and feat is the feature to propagate.
func ParseFeatureToken(tok string) (kind FeatureTokenKind, name, feat string, isDepPrefixed bool) {
	if idx := strings.Index(tok, "?/"); idx >= 0 {
		return TokenConditionalPropagate, tok[:idx], tok[idx+2:], false
	}
	if idx := strings.Index(tok, "/"); idx >= 0 {
		return TokenPropagate, tok[:idx], tok[idx+1:], false
	}
	if strings.HasPrefix(tok, "dep:") {
		return TokenActivation, strings.TrimPrefix(tok, "dep:"), "", true
	}
	return TokenActivation, tok, "", false
}

// IsExternalToken reports whether tok refers to something other than a
// local feature name (i.e. it must not be recursed into during feature
// expansion). This matches the shapes containing ':' or '/'.
func IsExternalToken(tok string) bool {
	return strings.ContainsAny(tok, ":/")
}
