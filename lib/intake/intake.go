// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bash/toby/lib/auth"
	"github.com/bash/toby/lib/config"
	"github.com/bash/toby/lib/ipc"
	"github.com/bash/toby/lib/job"
)

// ErrUnknownProject is returned by unauthenticated submission paths
// when the project is not configured.
var ErrUnknownProject = errors.New("unknown project")

// ErrInvalidTrigger is returned when a trigger is missing the field its
// kind requires, such as a Telegram command without a sender name. No
// job ID is allocated for it.
var ErrInvalidTrigger = errors.New("invalid trigger")

// Sender delivers a fully identified job to the worker.
type Sender interface {
	Send(ctx context.Context, j job.Job) error
}

// Allocator hands out job IDs. *jobid.Allocator implements it.
type Allocator interface {
	Next(project string) (uint64, error)
}

// IPCSender delivers jobs over the worker socket in RuntimeDir.
type IPCSender struct {
	RuntimeDir string
}

func (s IPCSender) Send(ctx context.Context, j job.Job) error {
	return ipc.Send(ctx, s.RuntimeDir, ipc.MessageForJob(j))
}

// Submitter is the shared submission path for every trigger.
type Submitter struct {
	Config    *config.Config
	Allocator Allocator
	Sender    Sender
	Logger    *slog.Logger
}

// SubmitWebhook authorizes tokenName/secret for project and queues a
// webhook job. Every authorization failure is auth.ErrForbidden.
func (s *Submitter) SubmitWebhook(ctx context.Context, project, tokenName, secret string) (job.Job, error) {
	if _, err := auth.Authorize(s.Config, project, tokenName, secret); err != nil {
		s.logger().Warn("webhook rejected", "project", project, "token", tokenName)
		return job.Job{}, err
	}
	return s.submit(ctx, project, job.Webhook(tokenName))
}

// SubmitCLI queues a job requested by a local operator.
func (s *Submitter) SubmitCLI(ctx context.Context, project string) (job.Job, error) {
	if _, ok := s.Config.Project(project); !ok {
		return job.Job{}, fmt.Errorf("%w: %q", ErrUnknownProject, project)
	}
	return s.submit(ctx, project, job.CLI())
}

// SubmitTelegram queues a job requested through the bot by username.
// The caller is responsible for checking the chat.
func (s *Submitter) SubmitTelegram(ctx context.Context, project, username string) (job.Job, error) {
	if _, ok := s.Config.Project(project); !ok {
		return job.Job{}, fmt.Errorf("%w: %q", ErrUnknownProject, project)
	}
	return s.submit(ctx, project, job.Telegram(username))
}

// submit validates before allocating so a job the worker would reject
// never consumes an ID.
func (s *Submitter) submit(ctx context.Context, project string, trigger job.Trigger) (job.Job, error) {
	if err := trigger.Validate(); err != nil {
		return job.Job{}, fmt.Errorf("%w: %v", ErrInvalidTrigger, err)
	}
	id, err := s.Allocator.Next(project)
	if err != nil {
		return job.Job{}, err
	}
	j := job.Job{ID: id, Project: project, Trigger: trigger}
	if err := s.Sender.Send(ctx, j); err != nil {
		return job.Job{}, fmt.Errorf("submitting %s: %w", j, err)
	}
	s.logger().Info("job submitted", "job_id", j.ID, "project", project, "trigger", trigger.String())
	return j, nil
}

func (s *Submitter) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
