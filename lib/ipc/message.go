// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"fmt"

	"github.com/bash/toby/lib/job"
	"github.com/bash/toby/lib/jobid"
)

// MessageType tags the variant carried by a Message.
type MessageType string

// TypeJob asks the worker to run a job.
const TypeJob MessageType = "job"

// Message is the tagged union sent over the socket. Type selects which
// payload field is set.
type Message struct {
	Type MessageType `cbor:"type"`
	Job  *JobMessage `cbor:"job,omitempty"`
}

// JobMessage asks the worker to run a project's scripts.
type JobMessage struct {
	Project string      `cbor:"project"`
	Trigger job.Trigger `cbor:"trigger"`

	// ID is the job ID allocated by intake. Zero means the sender
	// could not allocate one and the worker allocates it on receipt.
	ID job.ID `cbor:"id,omitempty"`
}

// NewJobMessage builds a job message without a pre-allocated ID.
func NewJobMessage(project string, trigger job.Trigger) Message {
	return Message{
		Type: TypeJob,
		Job:  &JobMessage{Project: project, Trigger: trigger},
	}
}

// MessageForJob builds a job message carrying an allocated job.
func MessageForJob(j job.Job) Message {
	return Message{
		Type: TypeJob,
		Job:  &JobMessage{Project: j.Project, Trigger: j.Trigger, ID: j.ID},
	}
}

// Validate checks that the message is a well-formed variant.
func (m Message) Validate() error {
	switch m.Type {
	case TypeJob:
		if m.Job == nil {
			return fmt.Errorf("job message without payload")
		}
		if err := jobid.ValidateProjectName(m.Job.Project); err != nil {
			return err
		}
		return m.Job.Trigger.Validate()
	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
}
