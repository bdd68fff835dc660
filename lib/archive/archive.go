// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"errors"
	"fmt"

	"github.com/bash/toby/lib/config"
	"github.com/bash/toby/lib/job"
)

var (
	// ErrAlreadyArchived is returned when a record for the job exists.
	ErrAlreadyArchived = errors.New("job already archived")

	// ErrNotFound is returned by Get for a job without a record.
	ErrNotFound = errors.New("archived job not found")
)

// Archiver writes finished-job records. It is the only part of a
// Store the job runner needs.
type Archiver interface {
	Archive(project string, id job.ID, record job.ArchivedJob) error
}

// Entry is one record returned by List.
type Entry struct {
	ID     job.ID
	Record job.ArchivedJob
}

// Store reads and writes archived job records.
type Store interface {
	Archiver

	// Get returns one record, or ErrNotFound.
	Get(project string, id job.ID) (job.ArchivedJob, error)

	// List returns a project's records ordered by job ID. A project
	// without records yields an empty list.
	List(project string) ([]Entry, error)

	Close() error
}

// Open returns the backend selected by cfg.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Main.Archive.Backend {
	case config.ArchiveFile, "":
		return NewFileStore(cfg.RuntimeDir()), nil
	case config.ArchiveSQLite:
		return OpenSQLite(cfg.ArchivePath())
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Main.Archive.Backend)
	}
}
