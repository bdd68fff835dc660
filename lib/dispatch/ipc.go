// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bash/toby/lib/ipc"
	"github.com/bash/toby/lib/job"
)

// MessageReceiver yields IPC messages. *ipc.Server implements it.
type MessageReceiver interface {
	Receive(ctx context.Context) (ipc.Message, error)
}

// Allocator hands out job IDs. *jobid.Allocator implements it.
type Allocator interface {
	Next(project string) (uint64, error)
}

// IPCReceiver adapts worker socket messages to jobs.
type IPCReceiver struct {
	Messages  MessageReceiver
	Allocator Allocator
}

// Receive returns the job carried by the next message. Messages
// without an ID get one from the allocator. A closed server reads as
// io.EOF.
func (r *IPCReceiver) Receive(ctx context.Context) (job.Job, error) {
	message, err := r.Messages.Receive(ctx)
	if errors.Is(err, ipc.ErrServerClosed) {
		return job.Job{}, io.EOF
	}
	if err != nil {
		return job.Job{}, err
	}
	if message.Type != ipc.TypeJob || message.Job == nil {
		return job.Job{}, &ipc.DecodeError{Err: fmt.Errorf("unexpected message type %q", message.Type)}
	}

	id := message.Job.ID
	if id == 0 {
		id, err = r.Allocator.Next(message.Job.Project)
		if err != nil {
			return job.Job{}, err
		}
	}
	return job.Job{ID: id, Project: message.Job.Project, Trigger: message.Job.Trigger}, nil
}
