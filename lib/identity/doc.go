// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity resolves the unprivileged user and group toby's
// daemons run as, and performs the one privilege drop toby-workerd
// makes at startup.
//
// The worker starts with elevated rights only so it can bind its IPC
// socket and hand ownership of the socket file to the intake user.
// Immediately afterwards it calls [Drop] exactly once. No other code
// path changes the process identity.
package identity
