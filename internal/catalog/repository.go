// Package catalog resolves card names and definition ids against the card
// database, and parses free-form decklists. The table engine never reads
// catalog data itself; only deck import and the presentation layer do.
package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cardtable/tabletop-server-go/internal/config"
)

// Definition is the display metadata stored for one card definition.
type Definition struct {
	ID       string
	Name     string
	TypeLine string
	ImageURL string
}

// DB wraps the catalog connection pool.
type DB struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewDB connects to the catalog database and verifies the connection.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool, logger: logger}, nil
}

// Stats exposes the underlying pool statistics.
func (db *DB) Stats() *pgxpool.Stat { return db.pool.Stat() }

// Close releases the connection pool.
func (db *DB) Close() { db.pool.Close() }

// Repository looks up card definitions.
type Repository struct {
	db *DB
}

// NewRepository creates a catalog repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// LookupDefinition returns the definition for one id, or nil if unknown.
func (r *Repository) LookupDefinition(ctx context.Context, definitionID string) (*Definition, error) {
	var def Definition
	err := r.db.pool.QueryRow(ctx,
		`SELECT id, name, type_line, image_url FROM card_definitions WHERE id = $1`,
		definitionID,
	).Scan(&def.ID, &def.Name, &def.TypeLine, &def.ImageURL)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up definition %s: %w", definitionID, err)
	}
	return &def, nil
}

// ResolveNames maps card names to definition ids for deck import. Names with
// no catalog row are absent from the result; the importer falls back to the
// raw name for those.
func (r *Repository) ResolveNames(ctx context.Context, names []string) (map[string]string, error) {
	if len(names) == 0 {
		return map[string]string{}, nil
	}

	rows, err := r.db.pool.Query(ctx,
		`SELECT name, id FROM card_definitions WHERE name = ANY($1)`,
		names,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve card names: %w", err)
	}
	defer rows.Close()

	resolved := make(map[string]string, len(names))
	for rows.Next() {
		var name, id string
		if err := rows.Scan(&name, &id); err != nil {
			return nil, fmt.Errorf("failed to scan resolved name: %w", err)
		}
		resolved[name] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resolved names: %w", err)
	}
	return resolved, nil
}
