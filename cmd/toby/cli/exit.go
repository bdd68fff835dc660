// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError ends the process with Code without printing anything
// further. The command has already reported the outcome, as
// "toby config check" does when validation fails.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode is checked by main to tell a handled non-zero exit apart
// from an error to print.
func (e *ExitError) ExitCode() int {
	return e.Code
}
