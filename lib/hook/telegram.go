// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package hook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bash/toby/lib/config"
	"github.com/bash/toby/lib/job"
	"github.com/bash/toby/lib/telegram"
)

// TelegramAPI is the part of *telegram.Client the hook uses.
type TelegramAPI interface {
	SendMessage(ctx context.Context, params telegram.SendMessageParams) (telegram.Message, error)
	SendDocument(ctx context.Context, chatID int64, fileName string, content io.Reader, caption string) (telegram.Message, error)
}

// TelegramHook notifies the registered Telegram chat.
type TelegramHook struct {
	api        TelegramAPI
	runtimeDir string
	sendLog    config.SendLog
	logger     *slog.Logger
}

// NewTelegramHook returns a hook posting through api. The chat is read
// from the runtime directory on every event so that running setup
// takes effect without a restart.
func NewTelegramHook(api TelegramAPI, runtimeDir string, sendLog config.SendLog, logger *slog.Logger) *TelegramHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &TelegramHook{api: api, runtimeDir: runtimeDir, sendLog: sendLog, logger: logger}
}

// BeforeJob posts the started message.
func (h *TelegramHook) BeforeJob(ctx context.Context, j job.Job) error {
	chatID, ok, err := h.chat()
	if err != nil || !ok {
		return err
	}
	return h.send(ctx, chatID, TelegramMarkup.StartedMessage(j))
}

// AfterJob posts the outcome and, if the policy allows, the log.
func (h *TelegramHook) AfterJob(ctx context.Context, j job.Job, result job.Result) error {
	chatID, ok, err := h.chat()
	if err != nil || !ok {
		return err
	}
	if err := h.send(ctx, chatID, TelegramMarkup.FinishedMessage(j, result)); err != nil {
		return err
	}
	if !h.sendLog.ShouldSend(result.Successful) {
		return nil
	}

	logFile, err := os.Open(result.LogPath)
	if err != nil {
		return fmt.Errorf("opening job log for telegram: %w", err)
	}
	defer logFile.Close()
	if _, err := h.api.SendDocument(ctx, chatID, LogFileName(j), logFile, fmt.Sprintf("Log of %s", j)); err != nil {
		return fmt.Errorf("sending job log to telegram: %w", err)
	}
	return nil
}

func (h *TelegramHook) chat() (int64, bool, error) {
	chatID, ok, err := telegram.ReadChatID(h.runtimeDir)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		h.logger.Debug("telegram chat not registered, skipping notification")
	}
	return chatID, ok, nil
}

func (h *TelegramHook) send(ctx context.Context, chatID int64, text string) error {
	_, err := h.api.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: telegram.ParseModeMarkdownV2,
	})
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}
