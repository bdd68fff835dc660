// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package telegram

import (
	"strings"
	"unicode/utf16"
)

// ParseModeMarkdownV2 renders *bold* and ```code``` in message text.
// Unlike the legacy Markdown mode it allows escapes inside entities,
// so any project or user name can be made safe with
// [EscapeMarkdownV2].
const ParseModeMarkdownV2 = "MarkdownV2"

// markdownV2Special are the characters MarkdownV2 requires escaping
// in ordinary text.
const markdownV2Special = "_*[]()~`>#+-=|{}.!\\"

// EscapeMarkdownV2 makes text render literally in MarkdownV2 mode,
// both in plain text and inside bold or italic entities.
func EscapeMarkdownV2(text string) string {
	return escapeAny(text, markdownV2Special)
}

// EscapeMarkdownV2Code makes text render literally inside a pre or
// code entity, where only backtick and backslash are special.
func EscapeMarkdownV2Code(text string) string {
	return escapeAny(text, "`\\")
}

func escapeAny(text, special string) string {
	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(special, r) {
			builder.WriteByte('\\')
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

// Update is one incoming event.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is a chat message.
type Message struct {
	MessageID int64           `json:"message_id"`
	From      *User           `json:"from,omitempty"`
	Chat      Chat            `json:"chat"`
	Text      string          `json:"text,omitempty"`
	Entities  []MessageEntity `json:"entities,omitempty"`
}

// Chat identifies a conversation.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// User is a Telegram account.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// MessageEntity marks a span of Text. Offset and Length count UTF-16
// code units.
type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// EntityBotCommand is the entity type of "/command" spans.
const EntityBotCommand = "bot_command"

// BotCommand extracts the first bot command of the message. For
// "/deploy@toby_bot site" it returns ("deploy", "site", true).
func (m *Message) BotCommand() (command, arguments string, ok bool) {
	if m.Text == "" {
		return "", "", false
	}
	for _, entity := range m.Entities {
		if entity.Type != EntityBotCommand {
			continue
		}
		units := utf16.Encode([]rune(m.Text))
		end := entity.Offset + entity.Length
		if entity.Offset < 0 || entity.Length < 1 || end > len(units) {
			return "", "", false
		}

		command = string(utf16.Decode(units[entity.Offset:end]))
		command = strings.TrimLeft(command, "/")
		if at := strings.IndexByte(command, '@'); at >= 0 {
			command = command[:at]
		}
		arguments = strings.TrimSpace(string(utf16.Decode(units[end:])))
		return command, arguments, true
	}
	return "", "", false
}

// SenderName returns the sender's username, falling back to the first
// name for accounts without one.
func (m *Message) SenderName() string {
	if m.From == nil {
		return ""
	}
	if m.From.Username != "" {
		return m.From.Username
	}
	return m.From.FirstName
}

// SendMessageParams are the sendMessage arguments toby sets.
type SendMessageParams struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
	ReplyToMessageID      int64  `json:"reply_to_message_id,omitempty"`
}

// GetUpdatesParams are the getUpdates arguments.
type GetUpdatesParams struct {
	Offset  int64 `json:"offset,omitempty"`
	Timeout int   `json:"timeout,omitempty"`
}

// SetWebhookParams are the setWebhook arguments.
type SetWebhookParams struct {
	URL            string   `json:"url"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}
