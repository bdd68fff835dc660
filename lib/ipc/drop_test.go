// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/bash/toby/lib/identity"
	"github.com/bash/toby/lib/testutil"
)

// dropChildEnvironment carries the runtime directory to the child
// process that performs the privilege drop. Dropping privileges
// affects the whole process, so it cannot happen in the test binary
// that runs the other tests.
const dropChildEnvironment = "TOBY_IPC_DROP_CHILD_RUNTIME_DIR"

// unprivileged is nobody:nogroup on common distributions.
var unprivileged = identity.Identity{UID: 65534, GID: 65534}

func TestCloseAfterPrivilegeDropRemovesSocket(t *testing.T) {
	if runtimeDir := os.Getenv(dropChildEnvironment); runtimeDir != "" {
		listenDropAndClose(t, runtimeDir)
		return
	}
	if os.Geteuid() != 0 {
		t.Skip("dropping privileges requires root")
	}

	base := testutil.SocketDir(t)
	if err := os.Chmod(base, 0o755); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	// A root-owned runtime directory, as a service manager creates it.
	runtimeDir := filepath.Join(base, "run")
	if err := os.Mkdir(runtimeDir, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	child := exec.Command(os.Args[0], "-test.run=^TestCloseAfterPrivilegeDropRemovesSocket$", "-test.v")
	child.Env = append(os.Environ(), dropChildEnvironment+"="+runtimeDir)
	output, err := child.CombinedOutput()
	if err != nil {
		t.Fatalf("child process failed: %v\n%s", err, output)
	}

	if _, err := os.Stat(SocketPath(runtimeDir)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("socket still present after Close (stat error %v)", err)
	}
}

// listenDropAndClose runs in the child process: bind as root, drop to
// the unprivileged identity, use the runtime directory, then close.
func listenDropAndClose(t *testing.T, runtimeDir string) {
	owner := unprivileged
	server, err := Listen(ServerConfig{RuntimeDir: runtimeDir, Owner: &owner})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if dropped, err := identity.Become(owner); err != nil || !dropped {
		server.Close()
		t.Fatalf("Become = (%v, %v), want a drop", dropped, err)
	}

	// Job counters and archive records live under the runtime
	// directory and are written after the drop.
	if err := os.MkdirAll(filepath.Join(runtimeDir, "jobs", "site"), 0o755); err != nil {
		t.Errorf("runtime directory not writable after drop: %v", err)
	}
	if err := server.Close(); err != nil {
		t.Fatalf("Close after drop: %v", err)
	}
}
