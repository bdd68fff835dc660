// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Toby-workerd runs deployment jobs.
//
// It owns the worker socket in the runtime directory, receives jobs
// from toby-httpd and the toby CLI, and runs them one at a time. Started
// as root, it creates the socket and the log directory for the
// configured user and group, then drops to them before running any job.
// SIGINT or SIGTERM stops it from taking new jobs; a job already running
// finishes first.
package main
