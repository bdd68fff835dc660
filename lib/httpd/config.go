// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package httpd

import (
	"log/slog"
	"net/http"

	"github.com/bash/toby/lib/config"
	"github.com/bash/toby/lib/telegram"
)

// TelegramFromConfig enables the bot webhook route when telegram and
// its webhook secret are configured, and returns nil otherwise.
func TelegramFromConfig(cfg *config.Config, httpClient *http.Client) *TelegramConfig {
	settings := cfg.Main.Telegram
	if settings == nil || settings.WebhookSecret == "" {
		return nil
	}
	return &TelegramConfig{
		Secret:     settings.WebhookSecret,
		RuntimeDir: cfg.RuntimeDir(),
		Replier:    telegram.NewClient(telegram.ClientConfig{Token: settings.Token, HTTPClient: httpClient}),
	}
}

// ServeConfigFromConfig takes the listen address and TLS files from cfg.
func ServeConfigFromConfig(cfg *config.Config, handler http.Handler, logger *slog.Logger) ServeConfig {
	serve := ServeConfig{
		Address: cfg.ListenAddress(),
		Handler: handler,
		Logger:  logger,
	}
	if tls := cfg.Main.TLS; tls != nil {
		serve.CertificateFile = tls.Certificate
		serve.KeyFile = tls.Key
	}
	return serve
}
