// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package job

import (
	"fmt"
)

// TriggerKind names the originating cause of a job.
type TriggerKind string

const (
	// KindWebhook is an authenticated HTTP request. Token carries the
	// name of the token that authorized it (never the secret).
	KindWebhook TriggerKind = "webhook"

	// KindCLI is a local `toby job run` invocation.
	KindCLI TriggerKind = "cli"

	// KindTelegram is a /deploy bot command. Username carries the
	// Telegram username of the sender.
	KindTelegram TriggerKind = "telegram"
)

// Trigger is a tagged variant: Kind selects which of the remaining
// fields are meaningful. The same struct is used on the IPC socket
// (cbor tags) and in archive records (toml tags).
type Trigger struct {
	Kind     TriggerKind `cbor:"type" toml:"type"`
	Token    string      `cbor:"token,omitempty" toml:"token,omitempty"`
	Username string      `cbor:"username,omitempty" toml:"username,omitempty"`
}

// Webhook returns a webhook trigger authorized by the named token.
func Webhook(token string) Trigger {
	return Trigger{Kind: KindWebhook, Token: token}
}

// CLI returns a command-line trigger.
func CLI() Trigger {
	return Trigger{Kind: KindCLI}
}

// Telegram returns a chat-command trigger sent by username.
func Telegram(username string) Trigger {
	return Trigger{Kind: KindTelegram, Username: username}
}

// Name is the trigger kind as exposed to scripts in TOBY_JOB_TRIGGER.
func (t Trigger) Name() string {
	return string(t.Kind)
}

// Validate reports whether the variant is well-formed: a known kind
// carrying exactly the fields that kind defines.
func (t Trigger) Validate() error {
	switch t.Kind {
	case KindWebhook:
		if t.Token == "" {
			return fmt.Errorf("webhook trigger without token name")
		}
		if t.Username != "" {
			return fmt.Errorf("webhook trigger with username")
		}
	case KindCLI:
		if t.Token != "" || t.Username != "" {
			return fmt.Errorf("cli trigger with extra fields")
		}
	case KindTelegram:
		if t.Username == "" {
			return fmt.Errorf("telegram trigger without username")
		}
		if t.Token != "" {
			return fmt.Errorf("telegram trigger with token name")
		}
	default:
		return fmt.Errorf("unknown trigger kind %q", t.Kind)
	}
	return nil
}

func (t Trigger) String() string {
	switch t.Kind {
	case KindWebhook:
		return fmt.Sprintf("webhook (%s)", t.Token)
	case KindTelegram:
		return fmt.Sprintf("telegram (@%s)", t.Username)
	default:
		return string(t.Kind)
	}
}
