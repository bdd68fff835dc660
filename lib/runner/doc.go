// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package runner executes one job: a project's scripts, in order, in a
// fresh sandbox directory, with all output captured to the job log.
//
// Lifecycle of [Runner.Run]:
//
//  1. Open the job log at <log>/jobs/<project>/<id>.log (append).
//  2. Create the sandbox <tmp>/toby-job-<uuid>, mode 0700. It is the
//     working directory of every script and is removed afterwards.
//  3. Run each script with stdout and stderr appended to the log. The
//     environment is the worker's own plus the project's environment,
//     TOBY_JOB_ID, TOBY_JOB_TRIGGER, and PATH extended with the
//     configuration's scripts.d directory.
//  4. A failing script aborts the job unless it is marked
//     allow_failure, in which case the failure is noted in the log and
//     the next script runs.
//  5. Archive exactly one record for the job, whatever happened above.
//
// Every script runs in its own process group so cancellation reaches
// the whole tree the script spawned.
package runner
