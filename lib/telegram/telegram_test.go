// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeAPI records requests and answers every method with a canned
// result.
type fakeAPI struct {
	mutex    sync.Mutex
	requests []recordedRequest
	results  map[string]string
}

type recordedRequest struct {
	method      string
	contentType string
	body        string
}

func newFakeAPI(t *testing.T, results map[string]string) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{results: results}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	return api, NewClient(ClientConfig{Token: "123:secret", BaseURL: server.URL})
}

func (f *fakeAPI) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	method := strings.TrimPrefix(request.URL.Path, "/bot123:secret/")
	body, _ := io.ReadAll(request.Body)

	f.mutex.Lock()
	f.requests = append(f.requests, recordedRequest{method, request.Header.Get("Content-Type"), string(body)})
	result, ok := f.results[method]
	f.mutex.Unlock()

	writer.Header().Set("Content-Type", "application/json")
	if !ok {
		writer.WriteHeader(http.StatusBadRequest)
		io.WriteString(writer, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
		return
	}
	io.WriteString(writer, `{"ok":true,"result":`+result+`}`)
}

func TestSendMessage(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{
		"sendMessage": `{"message_id":9,"chat":{"id":42,"type":"private"},"text":"hi"}`,
	})

	message, err := client.SendMessage(context.Background(), SendMessageParams{ChatID: 42, Text: "*hi*", ParseMode: ParseModeMarkdownV2})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if message.MessageID != 9 || message.Chat.ID != 42 {
		t.Errorf("message = %+v", message)
	}

	var sent map[string]any
	if err := json.Unmarshal([]byte(api.requests[0].body), &sent); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if sent["chat_id"] != float64(42) || sent["text"] != "*hi*" || sent["parse_mode"] != "Markdown" {
		t.Errorf("request body = %v", sent)
	}
}

func TestAPIError(t *testing.T) {
	_, client := newFakeAPI(t, nil)
	_, err := client.SendMessage(context.Background(), SendMessageParams{ChatID: 1, Text: "x"})
	var apiError *APIError
	if !errors.As(err, &apiError) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiError.Code != 400 || !strings.Contains(apiError.Description, "chat not found") {
		t.Errorf("APIError = %+v", apiError)
	}
}

func TestTransportErrorHidesToken(t *testing.T) {
	client := NewClient(ClientConfig{Token: "999:hidden", BaseURL: "http://127.0.0.1:1"})
	_, err := client.SendMessage(context.Background(), SendMessageParams{ChatID: 1, Text: "x"})
	if err == nil {
		t.Fatal("expected connection error")
	}
	if strings.Contains(err.Error(), "999:hidden") {
		t.Fatalf("error leaks token: %v", err)
	}
}

func TestSendDocument(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{
		"sendDocument": `{"message_id":10,"chat":{"id":42,"type":"private"}}`,
	})

	_, err := client.SendDocument(context.Background(), 42, "site-3.log", strings.NewReader("log contents"), "log for site#3")
	if err != nil {
		t.Fatalf("SendDocument: %v", err)
	}
	request := api.requests[0]
	if !strings.HasPrefix(request.contentType, "multipart/form-data") {
		t.Errorf("content type = %q", request.contentType)
	}
	for _, want := range []string{`name="chat_id"`, "42", `filename="site-3.log"`, "log contents", "log for site#3"} {
		if !strings.Contains(request.body, want) {
			t.Errorf("multipart body missing %q", want)
		}
	}
}

func TestPollUpdatesAcknowledges(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{
		"getUpdates": `[{"update_id":100,"message":{"message_id":1,"chat":{"id":5,"type":"private"},"text":"/start"}},{"update_id":101}]`,
	})

	updates, err := client.PollUpdates(context.Background())
	if err != nil {
		t.Fatalf("PollUpdates: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("got %d updates", len(updates))
	}
	if len(api.requests) != 2 || !strings.Contains(api.requests[1].body, `"offset":102`) {
		t.Fatalf("acknowledgement request = %+v", api.requests)
	}
}

func TestSetWebhook(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{"setWebhook": "true"})
	if err := client.SetWebhook(context.Background(), "https://toby.example/hooks/telegram/abc"); err != nil {
		t.Fatalf("SetWebhook: %v", err)
	}
	if !strings.Contains(api.requests[0].body, "https://toby.example/hooks/telegram/abc") {
		t.Errorf("body = %s", api.requests[0].body)
	}
}

func TestBotCommand(t *testing.T) {
	tests := []struct {
		name         string
		message      Message
		wantCommand  string
		wantArgument string
		wantOK       bool
	}{
		{
			name:         "plain",
			message:      Message{Text: "/deploy site", Entities: []MessageEntity{{Type: EntityBotCommand, Offset: 0, Length: 7}}},
			wantCommand:  "deploy",
			wantArgument: "site",
			wantOK:       true,
		},
		{
			name:         "bot name suffix",
			message:      Message{Text: "/deploy@toby_bot  site ", Entities: []MessageEntity{{Type: EntityBotCommand, Offset: 0, Length: 16}}},
			wantCommand:  "deploy",
			wantArgument: "site",
			wantOK:       true,
		},
		{
			name:         "offset counts utf16 units",
			message:      Message{Text: "🚀 /auth abc123", Entities: []MessageEntity{{Type: EntityBotCommand, Offset: 3, Length: 5}}},
			wantCommand:  "auth",
			wantArgument: "abc123",
			wantOK:       true,
		},
		{
			name:    "no entity",
			message: Message{Text: "/deploy site"},
		},
		{
			name:    "entity out of range",
			message: Message{Text: "/x", Entities: []MessageEntity{{Type: EntityBotCommand, Offset: 0, Length: 9}}},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			command, argument, ok := test.message.BotCommand()
			if command != test.wantCommand || argument != test.wantArgument || ok != test.wantOK {
				t.Errorf("BotCommand() = (%q, %q, %v), want (%q, %q, %v)",
					command, argument, ok, test.wantCommand, test.wantArgument, test.wantOK)
			}
		})
	}
}

func TestSenderName(t *testing.T) {
	message := Message{From: &User{FirstName: "Alice", Username: "alice"}}
	if got := message.SenderName(); got != "alice" {
		t.Errorf("SenderName() = %q", got)
	}
	message.From.Username = ""
	if got := message.SenderName(); got != "Alice" {
		t.Errorf("SenderName() without username = %q", got)
	}
}

func TestChatIDRoundTrip(t *testing.T) {
	runtimeDir := t.TempDir()

	if _, ok, err := ReadChatID(runtimeDir); err != nil || ok {
		t.Fatalf("ReadChatID before setup = (%v, %v)", ok, err)
	}
	if err := WriteChatID(runtimeDir, -1001234567890); err != nil {
		t.Fatalf("WriteChatID: %v", err)
	}
	chatID, ok, err := ReadChatID(runtimeDir)
	if err != nil || !ok || chatID != -1001234567890 {
		t.Fatalf("ReadChatID = (%d, %v, %v)", chatID, ok, err)
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		input, text, code string
	}{
		{"site", "site", "site"},
		{"my_site", `my\_site`, "my_site"},
		{"*[x](y)*", `\*\[x\]\(y\)\*`, "*[x](y)*"},
		{"v1.2-rc!", `v1\.2\-rc\!`, "v1.2-rc!"},
		{"a`b", "a\\`b", "a\\`b"},
		{`C:\tmp`, `C:\\tmp`, `C:\\tmp`},
		{"déploiement #3", `déploiement \#3`, "déploiement #3"},
	}
	for _, test := range tests {
		if got := EscapeMarkdownV2(test.input); got != test.text {
			t.Errorf("EscapeMarkdownV2(%q) = %q, want %q", test.input, got, test.text)
		}
		if got := EscapeMarkdownV2Code(test.input); got != test.code {
			t.Errorf("EscapeMarkdownV2Code(%q) = %q, want %q", test.input, got, test.code)
		}
	}
}
