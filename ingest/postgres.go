package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cargodeps/graph/crate"
)

// PostgresSource is a database/sql-backed SourceDB. It imports no driver
// itself; the caller blank-imports one matching its deployment (cmd/cargograph-ingest
// uses github.com/jackc/pgx/v5/stdlib) and passes an already-opened *sql.DB,
// the standard database/sql deployment pattern.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource wraps an open database handle as a SourceDB.
func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (p *PostgresSource) GetUsers(ctx context.Context) ([]crate.UserNode, error) {
	rows, err := p.db.QueryContext(ctx, `select id, gh_login, gh_avatar, name from users`)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	defer rows.Close()

	var out []crate.UserNode
	for rows.Next() {
		var u crate.UserNode
		var avatar, name sql.NullString
		if err := rows.Scan(&u.ID, &u.GHUsername, &avatar, &name); err != nil {
			return nil, fmt.Errorf("get users: scan: %w", err)
		}
		u.GHAvatar = avatar.String
		u.PreferredName = name.String
		out = append(out, u)
	}
	return out, rows.Err()
}

func (p *PostgresSource) GetCrates(ctx context.Context) ([]crate.Crate, error) {
	rows, err := p.db.QueryContext(ctx, `select id, name from crates`)
	if err != nil {
		return nil, fmt.Errorf("get crates: %w", err)
	}
	defer rows.Close()

	var out []crate.Crate
	for rows.Next() {
		var c crate.Crate
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("get crates: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCrateVersions returns version rows ordered by id ascending, matching
// the "lower id implies lower semver" assumption the caller relies on.
func (p *PostgresSource) GetCrateVersions(ctx context.Context) ([]crate.CrateVersion, error) {
	rows, err := p.db.QueryContext(ctx, `select id, crate_id, num, features from versions order by id`)
	if err != nil {
		return nil, fmt.Errorf("get crate versions: %w", err)
	}
	defer rows.Close()

	var out []crate.CrateVersion
	for rows.Next() {
		var v crate.CrateVersion
		var featuresJSON string
		if err := rows.Scan(&v.VersionID, &v.CrateID, &v.Num, &featuresJSON); err != nil {
			return nil, fmt.Errorf("get crate versions: scan: %w", err)
		}
		features, err := crate.DecodeFeatures(featuresJSON)
		if err != nil {
			return nil, fmt.Errorf("get crate versions: version %d: decode features: %w", v.VersionID, err)
		}
		v.Features = features
		out = append(out, v)
	}
	return out, rows.Err()
}

func (p *PostgresSource) GetRawDependencies(ctx context.Context) ([]crate.RawDependency, error) {
	rows, err := p.db.QueryContext(ctx, `
		select version_id, crate_id, req, optional, default_features, with_default_features, target, kind
		from dependencies`)
	if err != nil {
		return nil, fmt.Errorf("get raw dependencies: %w", err)
	}
	defer rows.Close()

	var out []crate.RawDependency
	for rows.Next() {
		var d crate.RawDependency
		var target sql.NullString
		var withFeaturesJSON sql.NullString
		var kind uint8
		if err := rows.Scan(&d.FromVersionID, &d.ToCrateID, &d.RequiredSemver, &d.Optional,
			&d.DefaultFeatures, &withFeaturesJSON, &target, &kind); err != nil {
			return nil, fmt.Errorf("get raw dependencies: scan: %w", err)
		}
		d.Kind = crate.DependencyKind(kind)
		d.Target = target.String
		if withFeaturesJSON.Valid && withFeaturesJSON.String != "" {
			var tokens []string
			if err := json.Unmarshal([]byte(withFeaturesJSON.String), &tokens); err != nil {
				return nil, fmt.Errorf("get raw dependencies: decode with_features: %w", err)
			}
			d.WithFeatures = tokens
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
