package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/artpar/valigate/ports"
)

// ModelStore implements ports.ModelStore using SQLite. Versions are
// append-only rows; the latest version is the max-version query, not a
// mutable flag.
type ModelStore struct {
	db    *DB
	clock ports.Clock
}

// NewModelStore creates a new model store.
func NewModelStore(db *DB, clock ports.Clock) *ModelStore {
	return &ModelStore{db: db, clock: clock}
}

// Get retrieves the serialized model for a name and version.
func (s *ModelStore) Get(ctx context.Context, name string, version int) (string, error) {
	var body string
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT body FROM models WHERE name = ? AND version = ?`,
		name, version,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ports.ErrModelNotFound
		}
		return "", err
	}
	return body, nil
}

// GetLatest retrieves the newest stored version of a model.
func (s *ModelStore) GetLatest(ctx context.Context, name string) (string, int, error) {
	var body string
	var version int
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT body, version FROM models WHERE name = ? ORDER BY version DESC LIMIT 1`,
		name,
	).Scan(&body, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, ports.ErrModelNotFound
		}
		return "", 0, err
	}
	return body, version, nil
}

// Put stores a serialized model under a new version.
func (s *ModelStore) Put(ctx context.Context, name string, version int, serialized string) error {
	res, err := s.db.DB.ExecContext(ctx,
		`INSERT OR IGNORE INTO models (name, version, body, created_at) VALUES (?, ?, ?, ?)`,
		name, version, serialized, s.clock.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ports.ErrVersionExists
	}
	return nil
}

// ListVersions returns all stored versions for a name, descending.
func (s *ModelStore) ListVersions(ctx context.Context, name string) ([]int, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT version FROM models WHERE name = ? ORDER BY version DESC`,
		name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := []int{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
