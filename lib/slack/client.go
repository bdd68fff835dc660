// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bash/toby/lib/netutil"
)

// DefaultBaseURL is the Web API root.
const DefaultBaseURL = "https://slack.com/api"

// APIError is a response with ok=false.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s: %s", e.Method, e.Code)
}

// ClientConfig configures NewClient.
type ClientConfig struct {
	// Token is a bot token (xoxb-...).
	Token string

	// BaseURL overrides DefaultBaseURL, for tests.
	BaseURL string

	HTTPClient *http.Client
}

// Client calls the Web API with one bot token.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for config.Token.
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

// envelope is the common part of every Web API reply.
type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PostMessageParams are the chat.postMessage arguments toby sets.
type PostMessageParams struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

// PostMessage sends text to a channel. Slack renders *bold* and
// ```code``` natively.
func (c *Client) PostMessage(ctx context.Context, params PostMessageParams) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encoding slack chat.postMessage request: %w", err)
	}
	request, err := c.newRequest(ctx, "chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json; charset=utf-8")
	return c.do("chat.postMessage", request, &envelope{})
}

// UploadFile shares content as fileName in channel.
func (c *Client) UploadFile(ctx context.Context, channel, fileName, title string, content []byte) error {
	form := url.Values{
		"filename": {fileName},
		"length":   {strconv.Itoa(len(content))},
	}
	request, err := c.newRequest(ctx, "files.getUploadURLExternal", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var ticket struct {
		envelope
		UploadURL string `json:"upload_url"`
		FileID    string `json:"file_id"`
	}
	if err := c.do("files.getUploadURLExternal", request, &ticket); err != nil {
		return err
	}

	upload, err := http.NewRequestWithContext(ctx, http.MethodPost, ticket.UploadURL, bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("building slack upload request: %w", err)
	}
	upload.Header.Set("Content-Type", "application/octet-stream")
	uploadResponse, err := c.httpClient.Do(upload)
	if err != nil {
		return fmt.Errorf("slack file upload: %w", err)
	}
	defer uploadResponse.Body.Close()
	if uploadResponse.StatusCode != http.StatusOK {
		return fmt.Errorf("slack file upload: HTTP %d: %s", uploadResponse.StatusCode, netutil.ErrorBody(uploadResponse.Body))
	}

	type uploadedFile struct {
		ID    string `json:"id"`
		Title string `json:"title,omitempty"`
	}
	completion, err := json.Marshal(struct {
		Files     []uploadedFile `json:"files"`
		ChannelID string         `json:"channel_id"`
	}{
		Files:     []uploadedFile{{ID: ticket.FileID, Title: title}},
		ChannelID: channel,
	})
	if err != nil {
		return fmt.Errorf("encoding slack files.completeUploadExternal request: %w", err)
	}
	request, err = c.newRequest(ctx, "files.completeUploadExternal", bytes.NewReader(completion))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json; charset=utf-8")
	return c.do("files.completeUploadExternal", request, &envelope{})
}

func (c *Client) newRequest(ctx context.Context, method string, body io.Reader) (*http.Request, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, body)
	if err != nil {
		return nil, fmt.Errorf("building slack %s request: %w", method, err)
	}
	request.Header.Set("Authorization", "Bearer "+c.token)
	return request, nil
}

// result is implemented by every reply type through the embedded
// envelope.
type result interface {
	failure() (bool, string)
}

func (e *envelope) failure() (bool, string) { return !e.OK, e.Error }

func (c *Client) do(method string, request *http.Request, reply result) error {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("slack %s: %w", method, err)
	}
	defer response.Body.Close()

	if err := netutil.DecodeResponse(response.Body, reply); err != nil {
		return fmt.Errorf("slack %s (HTTP %d): %w", method, response.StatusCode, err)
	}
	if failed, code := reply.failure(); failed {
		return &APIError{Method: method, Code: code}
	}
	return nil
}
