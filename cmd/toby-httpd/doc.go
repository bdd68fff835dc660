// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Toby-httpd is the network-facing half of a split deployment.
//
// It authenticates webhook requests and Telegram bot commands, assigns
// job IDs, and forwards jobs to toby-workerd over the worker socket.
// It never runs scripts itself. Started as root it binds the listen
// address first and then drops to the configured user and group.
package main
