// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package hook notifies the outside world about jobs.
//
// A [Hook] is called before a job runs and after it finished. [Hooks]
// fans each event out to every registered hook in registration order.
// A failing or panicking hook is logged with its name and never affects
// the job or the other hooks.
//
// Built-in hooks:
//
//   - [TelegramHook] posts status messages to the chat registered by
//     "toby telegram setup" and attaches the job log as a document when
//     its send_log policy says so.
//   - [SlackHook] posts the same messages to a Slack channel and
//     uploads the log file under the same policy.
//   - [ExecHook] runs an external program with the event described in
//     TOBY_HOOK_EVENT, TOBY_JOB_* environment variables. It is the
//     extension point for integrations toby does not ship.
//
// [FromConfig] assembles the hooks enabled in toby.yaml.
package hook
