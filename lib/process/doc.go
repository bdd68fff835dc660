// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helpers shared by toby's
// binaries. Each main() calls run() and hands a non-nil error to
// [Fatal], which reports it on stderr where a structured logger may
// not exist yet. [NewLogger] builds the slog logger a daemon installs
// once it is running.
package process
