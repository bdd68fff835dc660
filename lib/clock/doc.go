// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the wall clock so job timestamps and
// durations are deterministic in tests. Production code injects
// [Real]; tests inject [Fake] and move time with [FakeClock.Advance].
package clock
