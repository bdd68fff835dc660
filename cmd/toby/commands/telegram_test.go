// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bash/toby/lib/clock"
	"github.com/bash/toby/lib/telegram"
)

// lockedBuffer is written by the setup loop and read by the fake API.
type lockedBuffer struct {
	mutex  sync.Mutex
	buffer bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buffer.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buffer.String()
}

// fakeBot serves getUpdates, sendMessage and setWebhook. Once the
// initial updates are acknowledged it delivers "/auth <token>", with
// the token read from the setup output.
type fakeBot struct {
	out *lockedBuffer

	mutex    sync.Mutex
	pending  []telegram.Update
	nextID   int64
	sent     []telegram.SendMessageParams
	webhooks []string
}

func commandUpdate(id, chat int64, text string) telegram.Update {
	command, _, _ := strings.Cut(text, " ")
	return telegram.Update{
		UpdateID: id,
		Message: &telegram.Message{
			MessageID: id,
			Chat:      telegram.Chat{ID: chat, Type: "private"},
			Text:      text,
			Entities:  []telegram.MessageEntity{{Type: telegram.EntityBotCommand, Length: len(command)}},
		},
	}
}

func (b *fakeBot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	var result any = true
	switch {
	case strings.HasSuffix(r.URL.Path, "/getUpdates"):
		var params telegram.GetUpdatesParams
		json.NewDecoder(r.Body).Decode(&params)
		var remaining []telegram.Update
		for _, update := range b.pending {
			if update.UpdateID >= params.Offset {
				remaining = append(remaining, update)
			}
		}
		b.pending = remaining
		if params.Offset == 0 && len(b.pending) == 0 {
			_, token, found := strings.Cut(b.out.String(), "/auth ")
			if found {
				b.nextID++
				b.pending = append(b.pending, commandUpdate(b.nextID, 77, "/auth "+strings.TrimSpace(token)))
			}
		}
		if b.pending == nil {
			result = []telegram.Update{}
		} else {
			result = b.pending
		}
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		var params telegram.SendMessageParams
		json.NewDecoder(r.Body).Decode(&params)
		b.sent = append(b.sent, params)
		result = telegram.Message{MessageID: 1, Chat: telegram.Chat{ID: params.ChatID}}
	case strings.HasSuffix(r.URL.Path, "/setWebhook"):
		var params telegram.SetWebhookParams
		json.NewDecoder(r.Body).Decode(&params)
		b.webhooks = append(b.webhooks, params.URL)
	default:
		http.NotFound(w, r)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
}

func TestTelegramSetup(t *testing.T) {
	out := &lockedBuffer{}
	bot := &fakeBot{out: out, nextID: 2, pending: []telegram.Update{
		commandUpdate(1, 77, "/start"),
		commandUpdate(2, 99, "/auth not-the-token"),
	}}
	server := httptest.NewServer(bot)
	defer server.Close()

	runtimeDir := t.TempDir()
	setup := telegramSetup{
		Client:     telegram.NewClient(telegram.ClientConfig{Token: "123:abc", BaseURL: server.URL}),
		RuntimeDir: runtimeDir,
		Out:        out,
		Clock:      clock.Real(),
		Interval:   time.Millisecond,
		WebhookURL: "https://toby.example.com/hooks/telegram/hook-secret",
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := setup.run(ctx); err != nil {
		t.Fatalf("setup: %v", err)
	}

	chatID, ok, err := telegram.ReadChatID(runtimeDir)
	if err != nil || !ok || chatID != 77 {
		t.Fatalf("ReadChatID = (%d, %v, %v), want 77", chatID, ok, err)
	}
	if !strings.HasPrefix(out.String(), "Send the following message to your bot:\n  /auth ") {
		t.Errorf("instructions = %q", out.String())
	}

	bot.mutex.Lock()
	defer bot.mutex.Unlock()
	if len(bot.sent) != 1 || bot.sent[0].ChatID != 77 || bot.sent[0].Text != setupCompleteMessage {
		t.Errorf("sent = %+v", bot.sent)
	}
	if len(bot.webhooks) != 2 || bot.webhooks[0] != "" || bot.webhooks[1] != setup.WebhookURL {
		t.Errorf("webhooks = %q, want removal then registration", bot.webhooks)
	}
}

func TestTelegramSetupStopsOnCancel(t *testing.T) {
	bot := &fakeBot{out: &lockedBuffer{}}
	server := httptest.NewServer(bot)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	fake := clock.Fake(time.Unix(0, 0))
	setup := telegramSetup{
		Client:     telegram.NewClient(telegram.ClientConfig{Token: "123:abc", BaseURL: server.URL}),
		RuntimeDir: t.TempDir(),
		// The fake bot never sees the instructions, so no /auth arrives.
		Out:      &bytes.Buffer{},
		Clock:    fake,
		Interval: time.Hour,
	}
	done := make(chan error, 1)
	go func() { done <- setup.run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("setup returned nil after cancellation")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("setup did not stop after cancellation")
	}
}
