// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command tree behind the toby binary.
//
// A [Command] has a name, an optional pflag set factory, and either a
// Run function with its declared positional Args or nested
// subcommands. [Command.Execute] routes the
// first positional argument to a subcommand, parses flags, and prints
// help. Unknown commands and flags get a "did you mean" suggestion
// based on edit distance (suggest.go).
package cli
