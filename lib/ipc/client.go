// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/bash/toby/lib/codec"
)

// writeTimeout bounds delivery of one message once connected.
const writeTimeout = 10 * time.Second

// Client is one connection to the worker socket. A client sends a
// single message; open a new one per message.
type Client struct {
	connection *net.UnixConn
	path       string
}

// Dial connects to the worker socket under runtimeDir.
func Dial(ctx context.Context, runtimeDir string) (*Client, error) {
	path := SocketPath(runtimeDir)

	var dialer net.Dialer
	connection, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, &TransportError{Op: "dial", Path: path, Err: err}
	}
	return &Client{connection: connection.(*net.UnixConn), path: path}, nil
}

// Send encodes message, writes it, and half-closes the connection so
// the server sees EOF.
func (c *Client) Send(message Message) error {
	if err := message.Validate(); err != nil {
		return fmt.Errorf("refusing to send invalid message: %w", err)
	}

	data, err := codec.Marshal(message)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	c.connection.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := c.connection.Write(data); err != nil {
		return &TransportError{Op: "write", Path: c.path, Err: err}
	}
	if err := c.connection.CloseWrite(); err != nil {
		return &TransportError{Op: "write", Path: c.path, Err: err}
	}
	return nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.connection.Close()
}

// Send delivers one message to the worker on a fresh connection.
func Send(ctx context.Context, runtimeDir string, message Message) error {
	client, err := Dial(ctx, runtimeDir)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Send(message)
}
