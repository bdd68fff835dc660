// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil bounds HTTP response reads for toby's chat API
// clients (Telegram Bot API, Slack Web API). Every response body is
// read through a limit so a misbehaving upstream cannot exhaust memory.
package netutil
