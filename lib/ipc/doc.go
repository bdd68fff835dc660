// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package ipc is the local transport between toby's network-facing
// intake (toby-httpd, the toby CLI) and the separately privileged
// worker (toby-workerd).
//
// The worker owns a Unix socket at <runtime>/toby-workerd.sock. Each
// connection carries exactly one CBOR-encoded [Message]: the client
// writes it, half-closes, and disconnects; the server reads to EOF and
// decodes one value. No framing is needed.
//
// The worker usually starts as root, so [Listen] can hand ownership of
// the socket file to the intake user right after bind and before the
// worker drops privileges (see lib/identity). [Server.Close] removes
// the socket file; callers defer it immediately after Listen.
//
// Failures are reported as one of two kinds: [*TransportError] for
// socket I/O (bind, accept, read, write, dial) and [*DecodeError] for
// a malformed payload. Both are returned to the caller, never dropped.
package ipc
