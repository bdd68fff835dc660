// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os"
	"path/filepath"
)

// Fatal writes "<binary>: error: err" to stderr and exits with code 1.
func Fatal(err error) {
	name := "toby"
	if len(os.Args) > 0 {
		name = filepath.Base(os.Args[0])
	}
	fmt.Fprintf(os.Stderr, "%s: error: %v\n", name, err)
	os.Exit(1)
}
