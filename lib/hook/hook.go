// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package hook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bash/toby/lib/job"
)

// Hook observes the job lifecycle. Returned errors are logged by Hooks
// and otherwise ignored.
type Hook interface {
	BeforeJob(ctx context.Context, j job.Job) error
	AfterJob(ctx context.Context, j job.Job, result job.Result) error
}

type namedHook struct {
	name string
	hook Hook
}

// Registry collects hooks by name before the worker starts.
type Registry struct {
	mutex sync.Mutex
	hooks []namedHook
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a hook. Names must be unique.
func (r *Registry) Register(name string, hook Hook) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, existing := range r.hooks {
		if existing.name == name {
			return fmt.Errorf("hook %q is already registered", name)
		}
	}
	r.hooks = append(r.hooks, namedHook{name: name, hook: hook})
	return nil
}

// Names returns registered hook names in registration order.
func (r *Registry) Names() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	names := make([]string, len(r.hooks))
	for index, entry := range r.hooks {
		names[index] = entry.name
	}
	return names
}

// Hooks snapshots the registry into a fan-out. Later registrations do
// not affect the returned value.
func (r *Registry) Hooks(logger *slog.Logger) *Hooks {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{
		hooks:  append([]namedHook(nil), r.hooks...),
		logger: logger,
	}
}

// Hooks fans events out to a fixed list of hooks. A nil *Hooks has no
// hooks.
type Hooks struct {
	hooks  []namedHook
	logger *slog.Logger
}

// Len returns the number of hooks.
func (h *Hooks) Len() int {
	if h == nil {
		return 0
	}
	return len(h.hooks)
}

// BeforeJob notifies every hook that j is about to run.
func (h *Hooks) BeforeJob(ctx context.Context, j job.Job) {
	if h == nil {
		return
	}
	for _, entry := range h.hooks {
		h.invoke(entry, "before_job", j, func() error {
			return entry.hook.BeforeJob(ctx, j)
		})
	}
}

// AfterJob notifies every hook that j finished with result.
func (h *Hooks) AfterJob(ctx context.Context, j job.Job, result job.Result) {
	if h == nil {
		return
	}
	for _, entry := range h.hooks {
		h.invoke(entry, "after_job", j, func() error {
			return entry.hook.AfterJob(ctx, j, result)
		})
	}
}

// invoke runs one hook call, turning errors and panics into log lines.
func (h *Hooks) invoke(entry namedHook, event string, j job.Job, call func() error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			h.logger.Error("hook panicked",
				"hook", entry.name,
				"event", event,
				"job_id", j.ID,
				"project", j.Project,
				"panic", fmt.Sprint(recovered),
			)
		}
	}()

	if err := call(); err != nil {
		h.logger.Warn("hook failed",
			"hook", entry.name,
			"event", event,
			"job_id", j.ID,
			"project", j.Project,
			"error", err,
		)
	}
}
