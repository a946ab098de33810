// Package manifest records run and shard completion state in a SQLite file
// next to the output shards, so an interrupted run can be resumed at shard
// granularity.
package manifest

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Manifest is a SQLite-backed record of shard completion.
type Manifest struct {
	db *sql.DB
}

// Open opens (or creates) the manifest database and configures WAL mode.
func Open(path string) (*Manifest, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "manifest: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "manifest: exec %s", pragma)
		}
	}
	return &Manifest{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	regions     INTEGER NOT NULL,
	total_pairs INTEGER NOT NULL,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS shards (
	idx          INTEGER PRIMARY KEY,
	row_count    INTEGER NOT NULL,
	completed_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// Migrate creates the manifest schema if it does not exist.
func (m *Manifest) Migrate(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "manifest: migrate")
}

// Close closes the underlying database.
func (m *Manifest) Close() error {
	return m.db.Close()
}

// StartRun records a new run and returns its id.
func (m *Manifest) StartRun(ctx context.Context, regions int, totalPairs int64) (string, error) {
	id := uuid.NewString()
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO runs (id, regions, total_pairs) VALUES (?, ?, ?)`,
		id, regions, totalPairs,
	)
	if err != nil {
		return "", eris.Wrap(err, "manifest: start run")
	}
	return id, nil
}

// FinishRun stamps a run's completion time.
func (m *Manifest) FinishRun(ctx context.Context, id string) error {
	_, err := m.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = datetime('now') WHERE id = ?`, id,
	)
	return eris.Wrap(err, "manifest: finish run")
}

// MarkShardComplete records (or refreshes) a shard's final row count. A
// shard present in this table has been fully written, flushed, and closed.
func (m *Manifest) MarkShardComplete(ctx context.Context, idx int, rows int64) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO shards (idx, row_count) VALUES (?, ?)
		 ON CONFLICT (idx) DO UPDATE SET row_count = excluded.row_count, completed_at = datetime('now')`,
		idx, rows,
	)
	return eris.Wrapf(err, "manifest: mark shard %d complete", idx)
}

// CompletedShards returns the row counts of all completed shards, keyed by
// shard index.
func (m *Manifest) CompletedShards(ctx context.Context) (map[int]int64, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT idx, row_count FROM shards`)
	if err != nil {
		return nil, eris.Wrap(err, "manifest: query shards")
	}
	defer rows.Close()

	done := make(map[int]int64)
	for rows.Next() {
		var idx int
		var count int64
		if err := rows.Scan(&idx, &count); err != nil {
			return nil, eris.Wrap(err, "manifest: scan shard row")
		}
		done[idx] = count
	}
	return done, rows.Err()
}

// ClearShards forgets all shard completion records, forcing a full rerun.
func (m *Manifest) ClearShards(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM shards`)
	return eris.Wrap(err, "manifest: clear shards")
}
