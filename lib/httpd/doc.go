// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package httpd is toby's HTTP surface.
//
// Routes:
//
//	POST /v1/jobs/{project}        authenticated webhook, 202 {"id": n}
//	POST /hooks/telegram/{secret}  Telegram bot updates (/deploy <project>)
//	GET  /healthz                  liveness
//
// Handlers only authenticate and submit. Jobs run elsewhere, so a
// request never waits for a deployment to finish.
package httpd
