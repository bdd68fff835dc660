// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Toby is the operator command line: queue jobs, browse the job
// archive, validate configuration, and link the Telegram bot.
//
//	toby job run site
//	toby job list site
//	toby config check
//	toby telegram setup
package main
