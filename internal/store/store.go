// Package store persists downsampled telemetry snapshots to sqlite and
// serves the range queries behind historical analytics charts.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"hostpulse/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	cpu REAL NOT NULL,
	ram REAL NOT NULL,
	net_in REAL NOT NULL,
	net_out REAL NOT NULL,
	disk_read REAL NOT NULL,
	disk_write REAL NOT NULL,
	timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON snapshots(timestamp);
`

// Store is the sqlite-backed snapshot repository. Append-only except for
// retention pruning.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the snapshot database at path. Use ":memory:"
// for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL&_loc=UTC", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot database not responding: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate snapshots table: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveSnapshot appends one downsampled row for the given sample.
func (s *Store) SaveSnapshot(ctx context.Context, stats models.SystemStats) error {
	ts := stats.SampledAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (cpu, ram, net_in, net_out, disk_read, disk_write, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stats.CPU, stats.RAM, stats.NetInMBs, stats.NetOutMBs,
		stats.DiskReadMBs, stats.DiskWriteMBs, ts.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// PruneOlderThan deletes rows at or before the cutoff (a row exactly at the
// cutoff age is deleted) and reports how many went.
func (s *Store) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE timestamp <= ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// Range returns snapshots with from <= timestamp <= to, oldest first.
func (s *Store) Range(ctx context.Context, from, to time.Time) ([]models.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cpu, ram, net_in, net_out, disk_read, disk_write, timestamp
		FROM snapshots
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []models.Snapshot
	for rows.Next() {
		var snap models.Snapshot
		if err := rows.Scan(&snap.ID, &snap.CPU, &snap.RAM, &snap.NetIn, &snap.NetOut,
			&snap.DiskRead, &snap.DiskWrite, &snap.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Count reports the number of persisted snapshots.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
