// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/bash/toby/lib/job"
	"github.com/bash/toby/lib/jobid"
)

const recordExtension = ".toml"

// FileStore keeps one TOML file per job under the runtime directory.
type FileStore struct {
	runtimeDir string
}

// NewFileStore returns a store rooted at runtimeDir.
func NewFileStore(runtimeDir string) *FileStore {
	return &FileStore{runtimeDir: runtimeDir}
}

func (s *FileStore) projectDir(project string) string {
	return filepath.Join(s.runtimeDir, "jobs", project)
}

// RecordPath returns the file holding a job's record.
func (s *FileStore) RecordPath(project string, id job.ID) string {
	return filepath.Join(s.projectDir(project), strconv.FormatUint(id, 10)+recordExtension)
}

// Archive writes the record, failing with ErrAlreadyArchived if one
// exists.
func (s *FileStore) Archive(project string, id job.ID, record job.ArchivedJob) error {
	if err := jobid.ValidateProjectName(project); err != nil {
		return err
	}
	data, err := toml.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding archive record for %s#%d: %w", project, id, err)
	}

	directory := s.projectDir(project)
	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}

	temporary, err := os.CreateTemp(directory, ".archive-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary archive file: %w", err)
	}
	temporaryPath := temporary.Name()
	defer os.Remove(temporaryPath)

	// Write, sync, close, in that order, before the record becomes
	// visible.
	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		return fmt.Errorf("writing temporary archive file: %w", err)
	}
	if err := temporary.Sync(); err != nil {
		temporary.Close()
		return fmt.Errorf("syncing temporary archive file: %w", err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("closing temporary archive file: %w", err)
	}
	if err := os.Chmod(temporaryPath, 0644); err != nil {
		return fmt.Errorf("setting archive file permissions: %w", err)
	}

	// Link fails if the target exists, which is what makes the write
	// exactly-once. Rename would silently replace an earlier record.
	path := s.RecordPath(project, id)
	if err := os.Link(temporaryPath, path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s#%d: %w", project, id, ErrAlreadyArchived)
		}
		return fmt.Errorf("linking archive file into place: %w", err)
	}

	if parent, err := os.Open(directory); err == nil {
		parent.Sync()
		parent.Close()
	}
	return nil
}

// Get reads one record.
func (s *FileStore) Get(project string, id job.ID) (job.ArchivedJob, error) {
	if err := jobid.ValidateProjectName(project); err != nil {
		return job.ArchivedJob{}, err
	}
	path := s.RecordPath(project, id)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return job.ArchivedJob{}, fmt.Errorf("%s#%d: %w", project, id, ErrNotFound)
	}
	if err != nil {
		return job.ArchivedJob{}, fmt.Errorf("reading archive record: %w", err)
	}
	return decodeRecord(path, data)
}

// List reads every record of a project.
func (s *FileStore) List(project string) ([]Entry, error) {
	if err := jobid.ValidateProjectName(project); err != nil {
		return nil, err
	}
	directoryEntries, err := os.ReadDir(s.projectDir(project))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing archive records: %w", err)
	}

	var entries []Entry
	for _, directoryEntry := range directoryEntries {
		name := directoryEntry.Name()
		if directoryEntry.IsDir() || !strings.HasSuffix(name, recordExtension) {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimSuffix(name, recordExtension), 10, 64)
		if err != nil {
			continue
		}
		path := filepath.Join(s.projectDir(project), name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading archive record: %w", err)
		}
		record, err := decodeRecord(path, data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{ID: id, Record: record})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// Close is a no-op; FileStore holds no resources.
func (s *FileStore) Close() error { return nil }

func decodeRecord(path string, data []byte) (job.ArchivedJob, error) {
	var record job.ArchivedJob
	if err := toml.Unmarshal(data, &record); err != nil {
		return job.ArchivedJob{}, fmt.Errorf("parsing archive record %s: %w", path, err)
	}
	return record, nil
}
