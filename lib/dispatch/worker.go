// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/bash/toby/lib/cancel"
	"github.com/bash/toby/lib/clock"
	"github.com/bash/toby/lib/config"
	"github.com/bash/toby/lib/hook"
	"github.com/bash/toby/lib/ipc"
	"github.com/bash/toby/lib/job"
)

// errorPause spaces out retries after a receive error so a persistent
// transport failure does not spin.
const errorPause = 100 * time.Millisecond

// Runner executes one job. *runner.Runner implements it.
type Runner interface {
	Run(ctx context.Context, j job.Job, project config.Project) job.Result
}

// Worker runs jobs sequentially.
type Worker struct {
	// Projects are the known projects by name. Jobs for other names
	// are logged and dropped without being archived.
	Projects map[string]config.Project

	Runner Runner

	// Hooks may be nil.
	Hooks *hook.Hooks

	// Clock defaults to clock.Real().
	Clock clock.Clock

	Logger *slog.Logger
}

// Run consumes jobs until the stream reports io.EOF (closed queue or
// cancelled stream) or ctx is done, then returns nil. Receive errors
// (transport, decode, allocation) are logged and the loop continues.
func (w *Worker) Run(ctx context.Context, jobs cancel.Receiver[job.Job]) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	wallClock := w.Clock
	if wallClock == nil {
		wallClock = clock.Real()
	}

	logger.Info("worker started", "projects", len(w.Projects), "hooks", w.Hooks.Len())
	for {
		next, err := jobs.Receive(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ipc.ErrServerClosed) || ctx.Err() != nil {
				logger.Info("worker stopped")
				return nil
			}
			logger.Error("receiving job failed", "error", err, "kind", errorKind(err))
			select {
			case <-wallClock.After(errorPause):
			case <-ctx.Done():
			}
			continue
		}

		w.execute(ctx, next, logger)
	}
}

// execute drives one job through hooks and the runner.
func (w *Worker) execute(ctx context.Context, j job.Job, logger *slog.Logger) {
	logger = logger.With("job_id", j.ID, "project", j.Project, "trigger", j.Trigger.String())

	project, ok := w.Projects[j.Project]
	if !ok {
		logger.Warn("skipping job for unknown project")
		return
	}

	// Cancellation stops the loop from taking the next job; it never
	// interrupts this one.
	jobContext := context.WithoutCancel(ctx)

	logger.Info("job starting")
	w.Hooks.BeforeJob(jobContext, j)
	result := w.Runner.Run(jobContext, j, project)
	w.Hooks.AfterJob(jobContext, j, result)
}

// errorKind labels receive errors in logs.
func errorKind(err error) string {
	var transportError *ipc.TransportError
	var decodeError *ipc.DecodeError
	switch {
	case errors.As(err, &transportError):
		return "transport"
	case errors.As(err, &decodeError):
		return "decode"
	default:
		return "other"
	}
}
