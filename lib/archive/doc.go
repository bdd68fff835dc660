// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive persists one record per finished job: when it
// started, whether it succeeded, and what triggered it.
//
// Records are written exactly once. A second Archive call for the same
// project and job ID fails with [ErrAlreadyArchived] and leaves the
// first record untouched.
//
// Two backends implement [Store]:
//
//   - [FileStore] writes <runtime>/jobs/<project>/<id>.toml next to the
//     project's job-ID counter. Each record is staged in a temporary
//     file, synced, and hard-linked into place, so a record is either
//     absent or complete and an existing record is never replaced.
//   - [SQLiteStore] keeps all records in one SQLite database
//     through lib/sqlitepool, keyed by (project, id). A duplicate key
//     leaves the existing row untouched.
//
// [Open] picks the backend from the archive section of toby.yaml.
package archive
