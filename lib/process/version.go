// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// version is set at link time:
//
//	go build -ldflags "-X github.com/bash/toby/lib/process.version=v0.3.0"
var version = ""

// Version returns the link-time version, else the module version from
// build info, else "(devel)", followed by the Go version.
func Version() string {
	v := version
	if v == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
			v = info.Main.Version
		} else {
			v = "(devel)"
		}
	}
	return fmt.Sprintf("%s (%s)", v, runtime.Version())
}
