// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package jobid

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// counterFileName is the per-project counter file.
const counterFileName = "next_id"

// counterSize is the on-disk width of the counter.
const counterSize = 8

// firstID is handed out when the counter file is new, empty, or too
// short to hold a counter.
const firstID uint64 = 1

// AllocationError reports a failed allocation. Op names the step that
// failed ("open", "lock", "read", "write", ...).
type AllocationError struct {
	Project string
	Op      string
	Err     error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocating job id for project %q: %s: %v", e.Project, e.Op, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// Allocator hands out job IDs from counter files under a runtime
// directory. The zero value is not usable; construct with New.
type Allocator struct {
	runtimeDir string
}

// New returns an allocator storing counters under runtimeDir.
func New(runtimeDir string) *Allocator {
	return &Allocator{runtimeDir: runtimeDir}
}

// CounterPath returns the counter file for project.
func (a *Allocator) CounterPath(project string) string {
	return filepath.Join(a.runtimeDir, "jobs", project, counterFileName)
}

// Next assigns the next job ID for project and advances the counter.
// The returned value is the assigned ID, not the updated counter.
func (a *Allocator) Next(project string) (uint64, error) {
	if err := ValidateProjectName(project); err != nil {
		return 0, &AllocationError{Project: project, Op: "validate", Err: err}
	}

	path := a.CounterPath(project)
	fail := func(op string, cause error) (uint64, error) {
		return 0, &AllocationError{Project: project, Op: op, Err: cause}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fail("create directory", err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fail("open", err)
	}
	defer file.Close()

	if err := lockExclusive(file); err != nil {
		return fail("lock", err)
	}
	defer unix.Flock(int(file.Fd()), unix.LOCK_UN)

	var buffer [counterSize]byte
	id := firstID
	if _, err := io.ReadFull(file, buffer[:]); err == nil {
		id = binary.NativeEndian.Uint64(buffer[:])
	} else if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fail("read", err)
	}

	binary.NativeEndian.PutUint64(buffer[:], id+1)
	if _, err := file.WriteAt(buffer[:], 0); err != nil {
		return fail("write", err)
	}
	if err := file.Truncate(counterSize); err != nil {
		return fail("truncate", err)
	}

	return id, nil
}

// lockExclusive blocks until it holds an exclusive flock on file,
// retrying when a signal interrupts the wait.
func lockExclusive(file *os.File) error {
	for {
		err := unix.Flock(int(file.Fd()), unix.LOCK_EX)
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}

// ValidateProjectName rejects names that cannot be used as a single
// path component under the runtime and log directories.
func ValidateProjectName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("project name is empty")
	case name == "." || name == "..":
		return fmt.Errorf("project name %q is reserved", name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("project name %q contains a path separator", name)
	}
	return nil
}
