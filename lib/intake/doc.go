// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package intake turns external requests into queued jobs.
//
// A [Submitter] authorizes a request, allocates the job's ID, and hands
// the job to a [Sender]. In the split deployment the sender is an
// [IPCSender] talking to the worker's socket; in single-process mode it
// is the worker's in-memory queue. Allocation happens before the send,
// so a caller always learns the ID of the job it created.
package intake
