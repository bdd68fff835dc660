// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package job

import (
	"fmt"
	"time"
)

// ID identifies a job within its project. IDs are allocated by
// lib/jobid and are strictly increasing per project.
type ID = uint64

// Job is one request to execute a project's configured scripts.
type Job struct {
	ID      ID
	Project string
	Trigger Trigger
}

// String renders the job for log lines and notifications.
func (j Job) String() string {
	return fmt.Sprintf("%s#%d", j.Project, j.ID)
}

// Archive projects the job into the record persisted after it ran.
func (j Job) Archive(startedAt time.Time, successful bool) ArchivedJob {
	return ArchivedJob{
		StartedAt:  uint64(startedAt.Unix()),
		Successful: successful,
		Trigger:    j.Trigger,
	}
}

// ArchivedJob is the durable outcome of one executed job. Exactly one
// record exists for every job that entered the runner.
type ArchivedJob struct {
	// StartedAt is the unix time in seconds at which the runner
	// started preparing the job's sandbox.
	StartedAt uint64 `toml:"started_at"`

	Successful bool `toml:"successful"`

	Trigger Trigger `toml:"trigger"`
}

// Result is what the runner reports for a job after it finished or
// aborted. Err is nil exactly when Successful is true.
type Result struct {
	Successful bool
	Err        error
	StartedAt  time.Time
	Duration   time.Duration

	// LogPath is the job's log file. It may not exist when the
	// sandbox failed before the log was opened.
	LogPath string
}
