// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch is toby's single consumer: it takes jobs one at a
// time from a stream and drives each through the hooks and the runner.
//
// The stream is any cancel.Receiver of jobs:
//
//   - [IPCReceiver] turns messages from the worker socket into jobs
//     (toby-workerd), allocating an ID when intake did not.
//   - [Queue] is a bounded in-process queue (tobyd), fed directly by
//     the HTTP intake.
//
// Either is wrapped in cancel.Cancelable so a shutdown signal ends the
// stream. A job that has started always runs to completion: the
// runner and hooks get a context detached from the loop's
// cancellation.
package dispatch
