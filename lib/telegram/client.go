// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bash/toby/lib/netutil"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// APIError is a response with ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// ClientConfig configures NewClient.
type ClientConfig struct {
	Token string

	// BaseURL overrides DefaultBaseURL, for tests.
	BaseURL string

	HTTPClient *http.Client
}

// Client calls the Bot API for one bot.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the bot identified by config.Token.
func NewClient(config ClientConfig) *Client {
	client := &Client{
		token:      config.Token,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: config.HTTPClient,
	}
	if client.baseURL == "" {
		client.baseURL = DefaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return client
}

// response is the envelope of every Bot API reply.
type response struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

func (c *Client) methodURL(method string) string {
	return c.baseURL + "/bot" + c.token + "/" + method
}

// call posts a JSON body and decodes the result into result (if
// non-nil).
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encoding telegram %s request: %w", method, err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building telegram %s request: %w", method, err)
	}
	request.Header.Set("Content-Type", "application/json")
	return c.do(method, request, result)
}

func (c *Client) do(method string, request *http.Request, result any) error {
	httpResponse, err := c.httpClient.Do(request)
	if err != nil {
		// The URL embeds the bot token; report only the method.
		return fmt.Errorf("telegram %s: request failed: %w", method, redactToken(err, c.token))
	}
	defer httpResponse.Body.Close()

	var envelope response
	if err := netutil.DecodeResponse(httpResponse.Body, &envelope); err != nil {
		return fmt.Errorf("telegram %s (HTTP %d): %w", method, httpResponse.StatusCode, err)
	}
	if !envelope.OK {
		return &APIError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("decoding telegram %s result: %w", method, err)
	}
	return nil
}

// SendMessage posts a text message.
func (c *Client) SendMessage(ctx context.Context, params SendMessageParams) (Message, error) {
	var message Message
	err := c.call(ctx, "sendMessage", params, &message)
	return message, err
}

// SendDocument uploads content as a file named fileName.
func (c *Client) SendDocument(ctx context.Context, chatID int64, fileName string, content io.Reader, caption string) (Message, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return Message{}, err
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return Message{}, err
		}
	}
	part, err := writer.CreateFormFile("document", fileName)
	if err != nil {
		return Message{}, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return Message{}, fmt.Errorf("reading document %s: %w", fileName, err)
	}
	if err := writer.Close(); err != nil {
		return Message{}, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendDocument"), &body)
	if err != nil {
		return Message{}, fmt.Errorf("building telegram sendDocument request: %w", err)
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())

	var message Message
	err = c.do("sendDocument", request, &message)
	return message, err
}

// GetUpdates fetches pending updates.
func (c *Client) GetUpdates(ctx context.Context, params GetUpdatesParams) ([]Update, error) {
	var updates []Update
	err := c.call(ctx, "getUpdates", params, &updates)
	return updates, err
}

// PollUpdates fetches pending updates and then acknowledges them, so
// the next poll only returns newer ones.
func (c *Client) PollUpdates(ctx context.Context) ([]Update, error) {
	updates, err := c.GetUpdates(ctx, GetUpdatesParams{})
	if err != nil || len(updates) == 0 {
		return updates, err
	}
	last := updates[len(updates)-1].UpdateID
	if _, err := c.GetUpdates(ctx, GetUpdatesParams{Offset: last + 1}); err != nil {
		return nil, fmt.Errorf("acknowledging updates: %w", err)
	}
	return updates, nil
}

// SetWebhook registers url as the bot's update endpoint.
func (c *Client) SetWebhook(ctx context.Context, url string) error {
	return c.call(ctx, "setWebhook", SetWebhookParams{URL: url, AllowedUpdates: []string{"message"}}, nil)
}

// redactToken hides the bot token inside transport errors, which quote
// the request URL.
func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<token>"))
}
