// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize bounds JSON API response reads. Chat API responses
// are a few kilobytes; the limit only guards against pathological
// upstreams.
const MaxResponseSize int64 = 16 << 20

// maxErrorBody bounds how much of an error response ends up in an
// error message.
const maxErrorBody = 4096

// DecodeResponse reads a JSON response body (bounded by
// MaxResponseSize) and decodes it into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// ErrorBody reads an error response for diagnostics. Read errors are
// ignored: a partial body is still useful in a message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	return string(data)
}
