// Package httpapi implements the HTTP front-end for a single endpoint:
// resolving a root crate version and a requested feature/kind selection
// into its induced dependency subgraph.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cargodeps/graph/crate"
	"github.com/cargodeps/graph/internal/cache"
	"github.com/cargodeps/graph/store"
	"github.com/cargodeps/graph/traverse"
)

// Handler serves GET /api/v1/cargo/crate/v/{version_id}/traverse.
type Handler struct {
	Client store.Client
	Cache  cache.Store
	Logger *slog.Logger
}

// NewMux builds a *http.ServeMux routing the single endpoint to h, using
// Go 1.22's pattern-routing support the same way the rest of a net/http
// service would.
func (h *Handler) NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/cargo/crate/v/{version_id}/traverse", h.serveTraverse)
	return mux
}

func (h *Handler) serveTraverse(w http.ResponseWriter, r *http.Request) {
	versionIDRaw := r.PathValue("version_id")
	versionID, err := strconv.ParseInt(versionIDRaw, 10, 32)
	if err != nil || versionID <= 0 {
		http.Error(w, "version_id must be a positive integer", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	rootFeaturesRaw := q.Get("root_features")
	var rootFeatures []string
	if rootFeaturesRaw != "" {
		rootFeatures = strings.Split(rootFeaturesRaw, ",")
	}
	includeDefault := queryBool(q, "root_include_default_features", true)
	includeNormal := queryBool(q, "include_normal_dependencies", true)
	includeBuild := queryBool(q, "include_build_dependencies", false)
	includeDev := queryBool(q, "include_dev_dependencies", false)

	key := fingerprint(crate.VersionID(versionID), rootFeaturesRaw, includeNormal, includeBuild, includeDev)
	if body, ok := h.Cache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
		return
	}

	result, err := traverse.Traverse(r.Context(), h.Client, crate.VersionID(versionID), traverse.Options{
		RootFeatures:   rootFeatures,
		IncludeDefault: includeDefault,
		Kinds:          crate.NewKindSet(includeNormal, includeBuild, includeDev),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	body, err := json.Marshal(toWire(result))
	if err != nil {
		h.logger().Error("encode traversal response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.Cache.Put(key, body)
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, traverse.ErrNotFound), errors.Is(err, store.ErrNotFound):
		http.Error(w, "version not found", http.StatusNotFound)
	default:
		h.logger().Error("traverse failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// toWire renders a traverse.Result as the [nodes, edges] two-tuple the
// endpoint contract promises.
func toWire(r traverse.Result) [2]any {
	nodes := make([]crate.NodeDTO, len(r.Nodes))
	for i, n := range r.Nodes {
		nodes[i] = crate.NodeOf(n)
	}
	edges := make([]crate.EdgeDTO, len(r.Edges))
	for i, e := range r.Edges {
		edges[i] = crate.EdgeOf(e.SrcHandle, e.DestHandle, e.Edge)
	}
	return [2]any{nodes, edges}
}

// fingerprint builds the cache key, intentionally omitting
// root_include_default_features: preserved from the source schema for
// compatibility (see the Open Questions entry in DESIGN.md).
func fingerprint(versionID crate.VersionID, rawRootFeatures string, normal, build, dev bool) string {
	return strconv.FormatInt(int64(versionID), 10) + "-" + rawRootFeatures + "-" +
		strconv.FormatBool(normal) + "-" + strconv.FormatBool(build) + "-" + strconv.FormatBool(dev)
}

func queryBool(q map[string][]string, key string, def bool) bool {
	vals, ok := q[key]
	if !ok || len(vals) == 0 {
		return def
	}
	b, err := strconv.ParseBool(vals[0])
	if err != nil {
		return def
	}
	return b
}
