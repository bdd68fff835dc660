// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package hook

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/bash/toby/lib/job"
	"github.com/bash/toby/lib/slack"
	"github.com/bash/toby/lib/telegram"
)

// excerptLines is how many trailing log lines a failure message
// quotes.
const excerptLines = 10

// maxExcerptBytes bounds the quoted log tail. Telegram caps messages
// at 4096 characters.
const maxExcerptBytes = 2048

// Markup renders notification text for one chat service. Project
// names, token names and usernames come from configuration and chat
// users, so every piece of literal text goes through the service's
// escaper; an unescaped "_" in a project name is enough for Telegram
// to reject the whole message.
type Markup struct {
	// text escapes ordinary and bold text.
	text func(string) string

	// code escapes the contents of a fenced code block.
	code func(string) string
}

var (
	// TelegramMarkup is for messages sent with ParseModeMarkdownV2.
	TelegramMarkup = Markup{text: telegram.EscapeMarkdownV2, code: telegram.EscapeMarkdownV2Code}

	// SlackMarkup is for mrkdwn message text.
	SlackMarkup = Markup{text: slack.Escape, code: slack.Escape}
)

func (m Markup) bold(text string) string {
	return "*" + m.text(text) + "*"
}

// StartedMessage announces a job about to run.
func (m Markup) StartedMessage(j job.Job) string {
	return fmt.Sprintf("⌛️ Job %s for project %s triggered by %s",
		m.bold(fmt.Sprintf("#%d", j.ID)), m.bold(j.Project), m.text(j.Trigger.String()+"..."))
}

// FinishedMessage reports a job's outcome. Failures quote the error
// and the end of the job log.
func (m Markup) FinishedMessage(j job.Job, result job.Result) string {
	subject := fmt.Sprintf("Job %s for project %s", m.bold(fmt.Sprintf("#%d", j.ID)), m.bold(j.Project))
	if result.Successful {
		return "☀️ " + subject + m.text(" completed successfully.")
	}

	excerpt := "unknown error"
	if result.Err != nil {
		excerpt = result.Err.Error()
	}
	if tail := logTail(result.LogPath); tail != "" {
		excerpt += "\n\n" + tail
	}
	// A backtick run inside the excerpt would close the code block.
	excerpt = strings.ReplaceAll(excerpt, "```", "'''")
	return "💔 " + subject + m.text(" failed.") + "\n```\n" + m.code(excerpt) + "\n```"
}

// LogFileName is the attachment name of a job log.
func LogFileName(j job.Job) string {
	return fmt.Sprintf("%s-%d.log", j.Project, j.ID)
}

// logTail returns the last excerptLines lines of the log at path, or
// "" if it cannot be read.
func logTail(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	data = bytes.TrimRight(data, "\n")
	if len(data) > maxExcerptBytes {
		data = data[len(data)-maxExcerptBytes:]
		if newline := bytes.IndexByte(data, '\n'); newline >= 0 {
			data = data[newline+1:]
		}
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) > excerptLines {
		lines = lines[len(lines)-excerptLines:]
	}
	return strings.Join(lines, "\n")
}
