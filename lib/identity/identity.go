// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

// Identity is a numeric uid/gid pair.
type Identity struct {
	UID int
	GID int
}

func (i Identity) String() string {
	return fmt.Sprintf("%d:%d", i.UID, i.GID)
}

// Lookup resolves a user name and group name to an Identity.
func Lookup(userName, groupName string) (Identity, error) {
	account, err := user.Lookup(userName)
	if err != nil {
		return Identity{}, fmt.Errorf("looking up user %q: %w", userName, err)
	}
	group, err := user.LookupGroup(groupName)
	if err != nil {
		return Identity{}, fmt.Errorf("looking up group %q: %w", groupName, err)
	}

	uid, err := strconv.Atoi(account.Uid)
	if err != nil {
		return Identity{}, fmt.Errorf("user %q has non-numeric uid %q", userName, account.Uid)
	}
	gid, err := strconv.Atoi(group.Gid)
	if err != nil {
		return Identity{}, fmt.Errorf("group %q has non-numeric gid %q", groupName, group.Gid)
	}
	return Identity{UID: uid, GID: gid}, nil
}

// Current returns the identity of the running process.
func Current() Identity {
	return Identity{UID: os.Getuid(), GID: os.Getgid()}
}

// Chown hands ownership of path to the identity.
func (i Identity) Chown(path string) error {
	return os.Chown(path, i.UID, i.GID)
}

var dropOnce sync.Once

// Drop switches the whole process to the identity: supplementary
// groups are cleared, then the gid, then the uid (in that order, since
// setgid is no longer permitted once the uid is unprivileged). Go's
// runtime applies each call to every thread.
//
// Drop may be called once per process. A second call returns an error
// without touching credentials.
func Drop(target Identity) error {
	err := fmt.Errorf("identity: privilege drop already performed")
	dropOnce.Do(func() {
		err = drop(target)
	})
	return err
}

func drop(target Identity) error {
	if err := unix.Setgroups([]int{target.GID}); err != nil {
		return fmt.Errorf("setgroups(%d): %w", target.GID, err)
	}
	if err := unix.Setgid(target.GID); err != nil {
		return fmt.Errorf("setgid(%d): %w", target.GID, err)
	}
	if err := unix.Setuid(target.UID); err != nil {
		return fmt.Errorf("setuid(%d): %w", target.UID, err)
	}
	if os.Getuid() != target.UID || os.Getgid() != target.GID {
		return fmt.Errorf("identity after drop is %d:%d, want %s", os.Getuid(), os.Getgid(), target)
	}
	return nil
}

// Become drops to target when the process runs as root and reports
// whether it did. An unprivileged process keeps its identity.
func Become(target Identity) (bool, error) {
	if os.Geteuid() != 0 {
		return false, nil
	}
	if err := Drop(target); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureDir creates path (and parents) with perm when it is missing.
// When running as root the directory is handed to the identity, even
// if it already existed, so it stays writable after Become.
func (i Identity) EnsureDir(path string, perm os.FileMode) error {
	if err := os.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if os.Geteuid() != 0 {
		return nil
	}
	if err := i.Chown(path); err != nil {
		return fmt.Errorf("chown %s to %s: %w", path, i, err)
	}
	return nil
}
