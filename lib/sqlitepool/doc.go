// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens SQLite databases the way toby uses them.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool and applies the same
// pragmas to every connection:
//
//   - journal_mode=WAL so `toby job list` can read while the worker
//     writes.
//   - synchronous=FULL. Archive records are written once and never
//     rewritten, so a commit must survive power loss.
//   - busy_timeout=5000 to wait for the write lock rather than fail
//     with SQLITE_BUSY.
//   - temp_store=MEMORY.
//
// Callers write SQL directly with sqlitex.Execute. [Pool.Do] borrows a
// connection for the length of one callback:
//
//	err := pool.Do(ctx, func(conn *sqlite.Conn) error {
//	    return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args})
//	})
package sqlitepool
