// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package hook

import (
	"context"
	"fmt"
	"os"

	"github.com/bash/toby/lib/config"
	"github.com/bash/toby/lib/job"
	"github.com/bash/toby/lib/slack"
)

// SlackAPI is the part of *slack.Client the hook uses.
type SlackAPI interface {
	PostMessage(ctx context.Context, params slack.PostMessageParams) error
	UploadFile(ctx context.Context, channel, fileName, title string, content []byte) error
}

// SlackHook notifies one Slack channel.
type SlackHook struct {
	api     SlackAPI
	channel string
	sendLog config.SendLog
}

// NewSlackHook returns a hook posting to channel.
func NewSlackHook(api SlackAPI, channel string, sendLog config.SendLog) *SlackHook {
	return &SlackHook{api: api, channel: channel, sendLog: sendLog}
}

// BeforeJob posts the started message.
func (h *SlackHook) BeforeJob(ctx context.Context, j job.Job) error {
	return h.post(ctx, SlackMarkup.StartedMessage(j))
}

// AfterJob posts the outcome and, if the policy allows, uploads the
// log.
func (h *SlackHook) AfterJob(ctx context.Context, j job.Job, result job.Result) error {
	if err := h.post(ctx, SlackMarkup.FinishedMessage(j, result)); err != nil {
		return err
	}
	if !h.sendLog.ShouldSend(result.Successful) {
		return nil
	}
	content, err := os.ReadFile(result.LogPath)
	if err != nil {
		return fmt.Errorf("reading job log for slack: %w", err)
	}
	if err := h.api.UploadFile(ctx, h.channel, LogFileName(j), j.String(), content); err != nil {
		return fmt.Errorf("uploading job log to slack: %w", err)
	}
	return nil
}

func (h *SlackHook) post(ctx context.Context, text string) error {
	if err := h.api.PostMessage(ctx, slack.PostMessageParams{Channel: h.channel, Text: text}); err != nil {
		return fmt.Errorf("sending slack message: %w", err)
	}
	return nil
}
