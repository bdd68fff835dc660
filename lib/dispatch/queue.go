// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/bash/toby/lib/job"
)

// ErrQueueClosed is returned by Submit after Close.
var ErrQueueClosed = errors.New("job queue closed")

// Queue is a bounded FIFO of jobs between intake and the worker.
// Submit blocks while the queue is full.
type Queue struct {
	jobs      chan job.Job
	closed    chan struct{}
	closeOnce sync.Once
}

// NewQueue returns a queue holding up to capacity waiting jobs.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		jobs:   make(chan job.Job, capacity),
		closed: make(chan struct{}),
	}
}

// Submit enqueues j, waiting for space until ctx is done.
func (q *Queue) Submit(ctx context.Context, j job.Job) error {
	select {
	case <-q.closed:
		return ErrQueueClosed
	default:
	}
	select {
	case q.jobs <- j:
		return nil
	case <-q.closed:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send is Submit under the name intake's Sender interface uses.
func (q *Queue) Send(ctx context.Context, j job.Job) error {
	return q.Submit(ctx, j)
}

// Receive dequeues the next job. After Close, queued jobs are still
// delivered; then Receive returns io.EOF.
func (q *Queue) Receive(ctx context.Context) (job.Job, error) {
	select {
	case j := <-q.jobs:
		return j, nil
	default:
	}
	select {
	case j := <-q.jobs:
		return j, nil
	case <-q.closed:
		select {
		case j := <-q.jobs:
			return j, nil
		default:
			return job.Job{}, io.EOF
		}
	case <-ctx.Done():
		return job.Job{}, ctx.Err()
	}
}

// Close stops accepting jobs. It is safe to call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.closed) })
}

// Len returns the number of waiting jobs.
func (q *Queue) Len() int { return len(q.jobs) }
