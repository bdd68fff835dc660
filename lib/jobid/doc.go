// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package jobid allocates job IDs from a durable per-project counter.
//
// Each project has one counter file under the runtime directory,
// <runtime>/jobs/<project>/next_id, holding the next ID to hand out as
// a raw 8-byte native-endian unsigned integer. [Allocator.Next] takes
// an exclusive flock(2) on that file for the read-modify-write only, so
// concurrent submitters for the same project serialize (even across
// processes) while different projects never contend.
//
// Any I/O failure is returned as an [*AllocationError]. Callers must
// reject the submission; there is no fallback ID.
package jobid
