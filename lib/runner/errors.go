// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"fmt"
	"strings"
)

// SandboxError means the job's environment (log file or working
// directory) could not be prepared. No script ran.
type SandboxError struct {
	// Op is "log" or "directory".
	Op  string
	Err error
}

func (e *SandboxError) Error() string {
	return fmt.Sprintf("preparing job %s: %v", e.Op, e.Err)
}

func (e *SandboxError) Unwrap() error { return e.Err }

// ScriptError is a script that exited non-zero or could not be started.
type ScriptError struct {
	// Index is the script's position in the project, from zero.
	Index   int
	Command []string

	// ExitCode is the process exit status, or -1 if the process never
	// started or was killed by a signal.
	ExitCode int

	// Err is set when the process could not be started or waited for.
	Err error
}

func (e *ScriptError) Error() string {
	command := strings.Join(e.Command, " ")
	if e.Err != nil {
		return fmt.Sprintf("command %q failed: %v", command, e.Err)
	}
	return fmt.Sprintf("command %q failed with exit status %d", command, e.ExitCode)
}

func (e *ScriptError) Unwrap() error { return e.Err }
