// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bash/toby/lib/identity"
	"github.com/bash/toby/lib/job"
	"github.com/bash/toby/lib/testutil"
)

func listen(t *testing.T) (*Server, string) {
	t.Helper()
	runtimeDir := testutil.SocketDir(t)
	server, err := Listen(ServerConfig{RuntimeDir: runtimeDir})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server, runtimeDir
}

type received struct {
	message Message
	err     error
}

func receiveAsync(server *Server, ctx context.Context) <-chan received {
	results := make(chan received, 1)
	go func() {
		message, err := server.Receive(ctx)
		results <- received{message, err}
	}()
	return results
}

func TestRoundTrip(t *testing.T) {
	server, runtimeDir := listen(t)
	ctx := context.Background()
	results := receiveAsync(server, ctx)

	sent := NewJobMessage("foo", job.CLI())
	if err := Send(ctx, runtimeDir, sent); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got := testutil.RequireReceive(t, results, 5*time.Second, "waiting for message")
	if got.err != nil {
		t.Fatalf("Receive: %v", got.err)
	}
	if got.message.Type != TypeJob || got.message.Job == nil {
		t.Fatalf("received %+v", got.message)
	}
	if got.message.Job.Project != "foo" || got.message.Job.Trigger != job.CLI() || got.message.Job.ID != 0 {
		t.Errorf("received job %+v", *got.message.Job)
	}
}

func TestRoundTripCarriesAllocatedID(t *testing.T) {
	server, runtimeDir := listen(t)
	ctx := context.Background()
	results := receiveAsync(server, ctx)

	sent := MessageForJob(job.Job{ID: 42, Project: "site", Trigger: job.Webhook("deploy")})
	if err := Send(ctx, runtimeDir, sent); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got := testutil.RequireReceive(t, results, 5*time.Second, "waiting for message")
	if got.err != nil {
		t.Fatalf("Receive: %v", got.err)
	}
	if got.message.Job.ID != 42 || got.message.Job.Trigger.Token != "deploy" {
		t.Errorf("received job %+v", *got.message.Job)
	}
}

func TestMalformedPayloadIsDecodeError(t *testing.T) {
	server, runtimeDir := listen(t)
	results := receiveAsync(server, context.Background())

	connection, err := net.Dial("unix", SocketPath(runtimeDir))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	connection.Write([]byte{0xff, 0x00, 0x13})
	connection.Close()

	got := testutil.RequireReceive(t, results, 5*time.Second, "waiting for decode error")
	var decodeError *DecodeError
	if !errors.As(got.err, &decodeError) {
		t.Fatalf("Receive error = %v, want *DecodeError", got.err)
	}
}

func TestUnknownTypeIsDecodeError(t *testing.T) {
	server, runtimeDir := listen(t)
	results := receiveAsync(server, context.Background())

	client, err := Dial(context.Background(), runtimeDir)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	// Bypass Send's validation to put a bogus variant on the wire.
	if _, err := client.connection.Write([]byte{0xa1, 0x64, 't', 'y', 'p', 'e', 0x63, 'f', 'o', 'o'}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	client.Close()

	got := testutil.RequireReceive(t, results, 5*time.Second, "waiting for decode error")
	var decodeError *DecodeError
	if !errors.As(got.err, &decodeError) {
		t.Fatalf("Receive error = %v, want *DecodeError", got.err)
	}
}

func TestServerKeepsReceivingAfterDecodeError(t *testing.T) {
	server, runtimeDir := listen(t)
	ctx := context.Background()

	results := receiveAsync(server, ctx)
	connection, err := net.Dial("unix", SocketPath(runtimeDir))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	connection.Write([]byte("garbage"))
	connection.Close()
	if got := testutil.RequireReceive(t, results, 5*time.Second, "first receive"); got.err == nil {
		t.Fatal("expected decode error for garbage")
	}

	results = receiveAsync(server, ctx)
	if err := Send(ctx, runtimeDir, NewJobMessage("foo", job.CLI())); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := testutil.RequireReceive(t, results, 5*time.Second, "second receive"); got.err != nil {
		t.Fatalf("second Receive: %v", got.err)
	}
}

func TestReceiveHonorsCancellation(t *testing.T) {
	server, runtimeDir := listen(t)
	ctx, cancel := context.WithCancel(context.Background())
	results := receiveAsync(server, ctx)

	cancel()
	got := testutil.RequireReceive(t, results, 5*time.Second, "waiting for cancelled receive")
	if !errors.Is(got.err, context.Canceled) {
		t.Fatalf("Receive error = %v, want context.Canceled", got.err)
	}

	// The listener must still be usable with a fresh context.
	results = receiveAsync(server, context.Background())
	if err := Send(context.Background(), runtimeDir, NewJobMessage("foo", job.CLI())); err != nil {
		t.Fatalf("Send after cancel: %v", err)
	}
	if got := testutil.RequireReceive(t, results, 5*time.Second, "receive after cancel"); got.err != nil {
		t.Fatalf("Receive after cancel: %v", got.err)
	}
}

func TestReceiveAfterClose(t *testing.T) {
	server, _ := listen(t)
	results := receiveAsync(server, context.Background())

	if err := server.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	got := testutil.RequireReceive(t, results, 5*time.Second, "waiting for closed receive")
	if !errors.Is(got.err, ErrServerClosed) {
		t.Fatalf("Receive error = %v, want ErrServerClosed", got.err)
	}
}

func TestCloseRemovesSocket(t *testing.T) {
	server, runtimeDir := listen(t)
	if err := server.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(SocketPath(runtimeDir)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("socket still present after Close: %v", err)
	}
	if err := server.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestListenReplacesStaleSocket(t *testing.T) {
	runtimeDir := testutil.SocketDir(t)
	testutil.WriteFile(t, SocketPath(runtimeDir), "stale")

	server, err := Listen(ServerConfig{RuntimeDir: runtimeDir})
	if err != nil {
		t.Fatalf("Listen over stale file: %v", err)
	}
	defer server.Close()

	info, err := os.Stat(server.Path())
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		t.Fatalf("mode = %v, want a socket", info.Mode())
	}
}

func TestListenCreatesRuntimeDirAndChowns(t *testing.T) {
	runtimeDir := filepath.Join(testutil.SocketDir(t), "run")
	owner := identity.Current()

	server, err := Listen(ServerConfig{RuntimeDir: runtimeDir, Owner: &owner})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer server.Close()

	info, err := os.Stat(server.Path())
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0660 {
		t.Errorf("socket permissions = %o, want 660", perm)
	}
}

func TestDialWithoutServer(t *testing.T) {
	runtimeDir := testutil.SocketDir(t)
	err := Send(context.Background(), runtimeDir, NewJobMessage("foo", job.CLI()))
	var transportError *TransportError
	if !errors.As(err, &transportError) || transportError.Op != "dial" {
		t.Fatalf("Send error = %v, want dial *TransportError", err)
	}
}

func TestSendRejectsInvalidMessage(t *testing.T) {
	_, runtimeDir := listen(t)
	client, err := Dial(context.Background(), runtimeDir)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()
	if err := client.Send(NewJobMessage("../etc", job.CLI())); err == nil {
		t.Fatal("expected validation error for traversal project name")
	}
}
