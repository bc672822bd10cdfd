// Package sqlite stores world snapshots in an embedded SQLite database,
// one row per world.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hallorn/engram/core"
	"github.com/hallorn/engram/snapshot"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	world_id   TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// Store persists snapshots in a single SQLite database file.
type Store struct {
	db *sql.DB
}

var _ core.SnapshotStore = (*Store)(nil)

// Open opens (creating if needed) the database at path and prepares the
// snapshot table.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite handles a single writer; more connections just contend.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-2000",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the snapshot row for its world.
func (s *Store) Save(ctx context.Context, snap *core.Snapshot) error {
	if snap == nil || snap.WorldID == "" {
		return fmt.Errorf("snapshot requires a world id")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (world_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(world_id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at`,
		snap.WorldID, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot for a world, or snapshot.ErrNotFound if none
// was saved.
func (s *Store) Load(ctx context.Context, worldID string) (*core.Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM snapshots WHERE world_id = ?`, worldID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, snapshot.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
