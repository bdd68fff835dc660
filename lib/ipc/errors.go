// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"errors"
	"fmt"
)

// ErrServerClosed is returned by Receive after Close.
var ErrServerClosed = errors.New("ipc: server closed")

// TransportError is a socket I/O failure. It is fatal to the
// connection it occurred on, not to the process.
type TransportError struct {
	// Op is the failing step: "listen", "chown", "accept", "read",
	// "dial", "write".
	Op   string
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ipc %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is a malformed message. The offending connection's
// payload is discarded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ipc decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
