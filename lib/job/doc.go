// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package job defines the values that flow through toby's execution
// pipeline: a [Job] created at intake, the [Trigger] that caused it,
// the [Result] the runner produces, and the [ArchivedJob] projection
// that outlives the job on disk.
//
// A Job is immutable once created. Intake allocates its ID, the
// dispatch loop owns it while it runs, and after archiving only the
// ArchivedJob record remains.
package job
