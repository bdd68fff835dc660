// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bash/toby/lib/job"
	"github.com/bash/toby/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS archived_jobs (
  project TEXT NOT NULL,
  id INTEGER NOT NULL,
  started_at INTEGER NOT NULL,
  successful INTEGER NOT NULL,
  trigger_type TEXT NOT NULL,
  token TEXT NOT NULL DEFAULT '',
  username TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (project, id)
);
`

const recordColumns = `id, started_at, successful, trigger_type, token, username`

// SQLiteStore keeps archived job records in a SQLite database.
type SQLiteStore struct {
	pool *sqlitepool.Pool
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path: path,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}
	return &SQLiteStore{pool: pool}, nil
}

// Archive inserts the record, failing with ErrAlreadyArchived if the
// key exists.
func (s *SQLiteStore) Archive(project string, id job.ID, record job.ArchivedJob) error {
	return s.pool.Do(context.Background(), func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			`INSERT INTO archived_jobs (project, id, started_at, successful, trigger_type, token, username)
             VALUES (?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT (project, id) DO NOTHING`,
			&sqlitex.ExecOptions{Args: []any{
				project,
				int64(id),
				int64(record.StartedAt),
				boolInt(record.Successful),
				string(record.Trigger.Kind),
				record.Trigger.Token,
				record.Trigger.Username,
			}},
		)
		if err != nil {
			return fmt.Errorf("inserting archive record for %s#%d: %w", project, id, err)
		}
		if conn.Changes() == 0 {
			return fmt.Errorf("%s#%d: %w", project, id, ErrAlreadyArchived)
		}
		return nil
	})
}

// Get reads one record.
func (s *SQLiteStore) Get(project string, id job.ID) (job.ArchivedJob, error) {
	var entries []Entry
	err := s.pool.Do(context.Background(), func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT `+recordColumns+` FROM archived_jobs WHERE project = ? AND id = ?`,
			&sqlitex.ExecOptions{
				Args:       []any{project, int64(id)},
				ResultFunc: collectEntries(&entries),
			},
		)
	})
	if err != nil {
		return job.ArchivedJob{}, fmt.Errorf("reading archive record %s#%d: %w", project, id, err)
	}
	if len(entries) == 0 {
		return job.ArchivedJob{}, fmt.Errorf("%s#%d: %w", project, id, ErrNotFound)
	}
	return entries[0].Record, nil
}

// List reads every record of a project ordered by ID.
func (s *SQLiteStore) List(project string) ([]Entry, error) {
	var entries []Entry
	err := s.pool.Do(context.Background(), func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT `+recordColumns+` FROM archived_jobs WHERE project = ? ORDER BY id`,
			&sqlitex.ExecOptions{
				Args:       []any{project},
				ResultFunc: collectEntries(&entries),
			},
		)
	})
	if err != nil {
		return nil, fmt.Errorf("listing archive records: %w", err)
	}
	return entries, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.pool.Close() }

// collectEntries scans rows selected with recordColumns.
func collectEntries(entries *[]Entry) func(stmt *sqlite.Stmt) error {
	return func(stmt *sqlite.Stmt) error {
		*entries = append(*entries, Entry{
			ID: job.ID(stmt.ColumnInt64(0)),
			Record: job.ArchivedJob{
				StartedAt:  uint64(stmt.ColumnInt64(1)),
				Successful: stmt.ColumnInt64(2) != 0,
				Trigger: job.Trigger{
					Kind:     job.TriggerKind(stmt.ColumnText(3)),
					Token:    stmt.ColumnText(4),
					Username: stmt.ColumnText(5),
				},
			},
		})
		return nil
	}
}

func boolInt(value bool) int64 {
	if value {
		return 1
	}
	return 0
}
