// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Tobyd runs toby in one process.
//
// The HTTP routes and the worker socket both feed a bounded in-memory
// queue that a single worker drains. This suits hosts where splitting
// the network-facing and script-running halves into toby-httpd and
// toby-workerd is not worth the extra unit. When the queue is full,
// submissions wait for space, so a burst of webhooks slows down
// instead of being dropped.
package main
