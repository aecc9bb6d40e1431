// Package ingest is the one-shot batch job that turns a relational dump
// into a populated graph store: fetch crates, versions, raw dependencies
// and users, resolve edges, compute per-crate FIRST_VERSION/LATEST_VERSION
// pointers, and persist everything through a store.Writer.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cargodeps/graph/crate"
	"github.com/cargodeps/graph/resolver"
	"github.com/cargodeps/graph/store"
)

// SourceDB is the relational read side ingest depends on. The shipped
// implementation (postgres.go) is a thin database/sql adapter over the
// four queries below; a test can swap in any other implementation (e.g. one
// backed by an in-memory slice).
type SourceDB interface {
	GetUsers(ctx context.Context) ([]crate.UserNode, error)
	GetCrates(ctx context.Context) ([]crate.Crate, error)
	// GetCrateVersions must return rows ordered by VersionID ascending;
	// the resolver and the FIRST_VERSION/LATEST_VERSION computation both
	// depend on that ordering standing in for ascending semver order.
	GetCrateVersions(ctx context.Context) ([]crate.CrateVersion, error)
	GetRawDependencies(ctx context.Context) ([]crate.RawDependency, error)
}

// Result summarizes a completed ingest run.
type Result struct {
	Stats    resolver.Stats
	Duration time.Duration
}

// Run fetches the full relational snapshot from src, resolves dependency
// edges, computes first/latest version pointers, and writes all of it to
// dst. It logs a structured summary on completion via logger.
func Run(ctx context.Context, src SourceDB, dst store.Writer, logger *slog.Logger) (Result, error) {
	start := time.Now()

	users, err := src.GetUsers(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: get users: %w", err)
	}
	crates, err := src.GetCrates(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: get crates: %w", err)
	}
	versions, err := src.GetCrateVersions(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: get crate versions: %w", err)
	}
	rawDeps, err := src.GetRawDependencies(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: get raw dependencies: %w", err)
	}

	edges, stats := resolver.Resolve(versions, rawDeps)
	firsts, latests := firstAndLatestVersions(versions)

	if err := dst.PutUsers(ctx, users); err != nil {
		return Result{}, fmt.Errorf("ingest: put users: %w", err)
	}
	if err := dst.PutCrates(ctx, crates); err != nil {
		return Result{}, fmt.Errorf("ingest: put crates: %w", err)
	}
	if err := dst.PutVersions(ctx, versions); err != nil {
		return Result{}, fmt.Errorf("ingest: put versions: %w", err)
	}
	if err := dst.PutEdges(ctx, edges); err != nil {
		return Result{}, fmt.Errorf("ingest: put edges: %w", err)
	}
	if err := dst.PutFirstLastVersion(ctx, firsts, latests); err != nil {
		return Result{}, fmt.Errorf("ingest: put first/latest version: %w", err)
	}

	result := Result{Stats: stats, Duration: time.Since(start)}
	if logger != nil {
		logger.Info("ingest complete",
			"duration", result.Duration,
			"version_rows", stats.VersionRows,
			"dependency_rows", stats.DependencyRows,
			"edges_emitted", stats.EdgesEmitted,
			"dropped_unparseable_num", stats.DroppedUnparseableNum,
			"dropped_bad_requirement", stats.DroppedBadRequirement,
			"dropped_no_matching_ver", stats.DroppedNoMatchingVer,
		)
	}
	return result, nil
}

// firstAndLatestVersions computes, per crate, the lowest and highest
// VersionID seen, relying on the same "ordered by VersionID == ordered by
// semver" assumption the resolver's candidate index relies on.
func firstAndLatestVersions(versions []crate.CrateVersion) ([]crate.FirstVersionEdge, []crate.LatestVersionEdge) {
	first := make(map[crate.CrateID]crate.VersionID)
	latest := make(map[crate.CrateID]crate.VersionID)
	order := make([]crate.CrateID, 0)

	for _, v := range versions {
		if _, ok := first[v.CrateID]; !ok {
			first[v.CrateID] = v.VersionID
			order = append(order, v.CrateID)
		}
		latest[v.CrateID] = v.VersionID
	}

	firsts := make([]crate.FirstVersionEdge, 0, len(order))
	latests := make([]crate.LatestVersionEdge, 0, len(order))
	for _, id := range order {
		firsts = append(firsts, crate.FirstVersionEdge{CrateID: id, VersionID: first[id]})
		latests = append(latests, crate.LatestVersionEdge{CrateID: id, VersionID: latest[id]})
	}
	return firsts, latests
}
