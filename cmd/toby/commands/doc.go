// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the toby command tree.
package commands
