// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SendLog decides when a notification channel attaches the job log.
type SendLog string

const (
	SendLogNever   SendLog = "never"
	SendLogAlways  SendLog = "always"
	SendLogSuccess SendLog = "success"
	SendLogFailure SendLog = "failure"
)

// ShouldSend reports whether the log of a job with the given outcome
// is attached. The zero value behaves like SendLogNever.
func (s SendLog) ShouldSend(successful bool) bool {
	switch s {
	case SendLogAlways:
		return true
	case SendLogSuccess:
		return successful
	case SendLogFailure:
		return !successful
	default:
		return false
	}
}

// UnmarshalYAML rejects values other than the four policies.
func (s *SendLog) UnmarshalYAML(node *yaml.Node) error {
	var value string
	if err := node.Decode(&value); err != nil {
		return err
	}
	switch SendLog(value) {
	case SendLogNever, SendLogAlways, SendLogSuccess, SendLogFailure:
		*s = SendLog(value)
		return nil
	default:
		return fmt.Errorf("line %d: send_log must be one of never, always, success, failure (got %q)", node.Line, value)
	}
}
