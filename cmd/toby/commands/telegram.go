// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/bash/toby/cmd/toby/cli"
	"github.com/bash/toby/lib/auth"
	"github.com/bash/toby/lib/clock"
	"github.com/bash/toby/lib/telegram"
)

// setupPollInterval spaces getUpdates calls while waiting for /auth.
const setupPollInterval = 3 * time.Second

const setupCompleteMessage = "🎉 Congratulations! Toby is now set up and will send notifications to this chat."

func telegramCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:        "telegram",
		Summary:     "Manage the Telegram bot",
		Subcommands: []*cli.Command{telegramSetupCommand(out)},
	}
}

func telegramSetupCommand(out io.Writer) *cli.Command {
	var options configOptions
	return &cli.Command{
		Name:    "setup",
		Summary: "Link the bot to a chat",
		Description: `Print a one-time /auth command, wait for it to arrive in a chat with the
bot, and register that chat for notifications and /deploy commands.

When telegram.public_url and telegram.webhook_secret are configured, the
bot's webhook is pointed at toby afterwards.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("setup", pflag.ContinueOnError)
			options.bind(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			cfg, err := options.load()
			if err != nil {
				return err
			}
			settings := cfg.Main.Telegram
			if settings == nil {
				return errors.New("telegram is not configured in toby.yaml")
			}
			setup := telegramSetup{
				Client:     telegram.NewClient(telegram.ClientConfig{Token: settings.Token}),
				RuntimeDir: cfg.RuntimeDir(),
				Out:        out,
				Clock:      clock.Real(),
				Interval:   setupPollInterval,
			}
			if settings.PublicURL != "" && settings.WebhookSecret != "" {
				setup.WebhookURL = strings.TrimRight(settings.PublicURL, "/") + "/hooks/telegram/" + settings.WebhookSecret
			}
			return setup.run(ctx)
		},
	}
}

type telegramSetup struct {
	Client     *telegram.Client
	RuntimeDir string
	Out        io.Writer
	Clock      clock.Clock
	Interval   time.Duration

	// WebhookURL, when set, is registered once the chat is linked.
	WebhookURL string
}

func (s telegramSetup) run(ctx context.Context) error {
	token, err := auth.GenerateSecret()
	if err != nil {
		return err
	}

	// getUpdates is refused while a webhook is registered.
	if err := s.Client.SetWebhook(ctx, ""); err != nil {
		return fmt.Errorf("removing webhook: %w", err)
	}

	fmt.Fprintf(s.Out, "Send the following message to your bot:\n  /auth %s\n", token)
	for {
		updates, err := s.Client.PollUpdates(ctx)
		if err != nil {
			return fmt.Errorf("polling updates: %w", err)
		}
		if chat, ok := findAuth(updates, token); ok {
			return s.complete(ctx, chat)
		}

		select {
		case <-s.Clock.After(s.Interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// findAuth returns the chat that sent "/auth <token>".
func findAuth(updates []telegram.Update, token string) (telegram.Chat, bool) {
	for _, update := range updates {
		if update.Message == nil {
			continue
		}
		command, arguments, ok := update.Message.BotCommand()
		if !ok || command == "start" {
			continue
		}
		if command == "auth" && arguments == token {
			return update.Message.Chat, true
		}
	}
	return telegram.Chat{}, false
}

func (s telegramSetup) complete(ctx context.Context, chat telegram.Chat) error {
	if err := telegram.WriteChatID(s.RuntimeDir, chat.ID); err != nil {
		return err
	}
	if _, err := s.Client.SendMessage(ctx, telegram.SendMessageParams{ChatID: chat.ID, Text: setupCompleteMessage}); err != nil {
		return fmt.Errorf("confirming setup: %w", err)
	}
	fmt.Fprintf(s.Out, "Chat %d registered.\n", chat.ID)

	if s.WebhookURL != "" {
		if err := s.Client.SetWebhook(ctx, s.WebhookURL); err != nil {
			return fmt.Errorf("registering webhook: %w", err)
		}
		fmt.Fprintln(s.Out, "Webhook registered.")
	}
	return nil
}
