// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package hook

import (
	"log/slog"
	"net/http"

	"github.com/bash/toby/lib/config"
	"github.com/bash/toby/lib/slack"
	"github.com/bash/toby/lib/telegram"
)

// FromConfig registers every hook enabled in cfg: telegram, then
// slack, then exec hooks in file order.
func FromConfig(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (*Registry, error) {
	registry := NewRegistry()

	if settings := cfg.Main.Telegram; settings != nil {
		client := telegram.NewClient(telegram.ClientConfig{Token: settings.Token, HTTPClient: httpClient})
		hook := NewTelegramHook(client, cfg.RuntimeDir(), settings.SendLog, logger)
		if err := registry.Register("telegram", hook); err != nil {
			return nil, err
		}
	}

	if settings := cfg.Main.Slack; settings != nil {
		client := slack.NewClient(slack.ClientConfig{Token: settings.Token, HTTPClient: httpClient})
		if err := registry.Register("slack", NewSlackHook(client, settings.Channel, settings.SendLog)); err != nil {
			return nil, err
		}
	}

	for _, settings := range cfg.Main.ExecHooks {
		if err := registry.Register("exec:"+settings.Name, NewExecHook(settings.Command, settings.SendLog)); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
