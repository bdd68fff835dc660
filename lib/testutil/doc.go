// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds test helpers shared across toby packages.
//
// [SocketDir] returns a short directory under /tmp for Unix sockets,
// since sun_path is limited to 108 bytes and t.TempDir() paths can
// exceed it. [RequireReceive] and [RequireClosed] wrap the select with
// a wall-clock fallback so individual tests never hang.
//
// All helpers fail the test via t.Fatalf rather than returning errors.
package testutil
