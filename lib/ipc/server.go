// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bash/toby/lib/codec"
	"github.com/bash/toby/lib/identity"
)

// SocketFileName is the worker socket's name inside the runtime
// directory.
const SocketFileName = "toby-workerd.sock"

// readTimeout bounds how long a connected client may take to deliver
// its message. Clients write immediately after connecting and then
// half-close, so a healthy client finishes in milliseconds. The worker
// handles one connection at a time, and without this bound a client
// that connects and goes silent would stall every later job.
const readTimeout = 30 * time.Second

// maxMessageSize bounds a single message. Real job messages are a few
// hundred bytes. The read stops one byte past the limit so an
// oversized payload is reported as such instead of being truncated
// into something that might decode.
const maxMessageSize = 64 * 1024

// SocketPath returns the worker socket path under runtimeDir.
func SocketPath(runtimeDir string) string {
	return filepath.Join(runtimeDir, SocketFileName)
}

// ServerConfig configures Listen.
type ServerConfig struct {
	// RuntimeDir holds the socket. It is created if missing.
	RuntimeDir string

	// Owner, when set, receives ownership of the socket file and of
	// the runtime directory immediately after bind. The worker drops
	// to this identity afterwards and must still be able to remove the
	// socket on shutdown and create job counters and archive records
	// under the runtime directory. An existing directory is handed over
	// too: a service manager typically creates it root-owned before
	// the worker starts.
	Owner *identity.Identity

	Logger *slog.Logger
}

// Server receives messages on the worker socket.
//
// There is no accept loop and no per-connection goroutine. Jobs run
// strictly one after another, so the server offers a pull API instead:
// the caller decides when to take the next message. toby-workerd calls
// Receive only when it is ready to run a job, and clients that connect
// in the meantime wait in the kernel's listen backlog, so a burst of
// deploy requests never holds more than one decoded message in memory.
// tobyd forwards into its in-process queue, which bounds the burst
// there instead.
//
// Receive is meant to be called from a single goroutine; Close may be
// called from any.
type Server struct {
	listener *net.UnixListener
	path     string
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
}

// Listen binds the worker socket, replacing a stale socket file left
// by a previous run.
func Listen(config ServerConfig) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	path := SocketPath(config.RuntimeDir)

	if err := os.MkdirAll(config.RuntimeDir, 0755); err != nil {
		return nil, &TransportError{Op: "listen", Path: path, Err: fmt.Errorf("creating runtime directory: %w", err)}
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, &TransportError{Op: "listen", Path: path, Err: fmt.Errorf("removing stale socket: %w", err)}
	}

	listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, &TransportError{Op: "listen", Path: path, Err: err}
	}
	// Close removes the file itself so removal happens exactly once
	// and its error is reported.
	listener.SetUnlinkOnClose(false)

	server := &Server{
		listener: listener,
		path:     path,
		logger:   logger,
		closed:   make(chan struct{}),
	}

	if config.Owner != nil {
		if err := server.handOver(*config.Owner, config.RuntimeDir); err != nil {
			server.Close()
			return nil, err
		}
		logger.Info("ipc socket ownership transferred", "path", path, "owner", config.Owner.String())
	}

	logger.Info("ipc server listening", "path", path)
	return server, nil
}

// handOver chowns the socket and the runtime directory to owner and
// restricts the socket to owner and group. Unlinking the socket needs
// write permission on the directory, not on the socket itself, so the
// directory chown is what lets Close succeed after a privilege drop.
func (s *Server) handOver(owner identity.Identity, runtimeDir string) error {
	if err := owner.Chown(s.path); err != nil {
		return &TransportError{Op: "chown", Path: s.path, Err: err}
	}
	if err := os.Chmod(s.path, 0660); err != nil {
		return &TransportError{Op: "chown", Path: s.path, Err: fmt.Errorf("setting socket permissions: %w", err)}
	}
	if err := owner.Chown(runtimeDir); err != nil {
		return &TransportError{Op: "chown", Path: runtimeDir, Err: err}
	}
	return nil
}

// Path returns the socket file path.
func (s *Server) Path() string { return s.path }

// Receive accepts one connection and decodes the single message it
// carries. Cancelling ctx interrupts a blocked accept and returns
// ctx.Err(). After Close, Receive returns ErrServerClosed.
func (s *Server) Receive(ctx context.Context) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}

	connection, err := s.accept(ctx)
	if err != nil {
		return Message{}, err
	}
	defer connection.Close()

	return s.read(connection)
}

// accept waits for one connection.
//
// net.UnixListener has no context-aware accept. A watcher goroutine
// turns ctx cancellation into an expired listener deadline, which
// makes the blocked AcceptUnix return with a timeout error. Closing
// the listener would also unblock it, but would end the server, and
// cancellation here means "stop waiting for this job", not shutdown.
// accept waits for the watcher to exit before resetting the deadline
// so a cancellation that lands after a connection arrived cannot
// expire the deadline of the next call.
func (s *Server) accept(ctx context.Context) (*net.UnixConn, error) {
	finished := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-ctx.Done():
			s.listener.SetDeadline(time.Unix(1, 0))
		case <-finished:
		}
	}()

	connection, err := s.listener.AcceptUnix()
	close(finished)
	<-watcherDone
	s.listener.SetDeadline(time.Time{})

	if err == nil {
		return connection, nil
	}
	select {
	case <-s.closed:
		return nil, ErrServerClosed
	default:
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return nil, &TransportError{Op: "accept", Path: s.path, Err: err}
}

// read consumes the connection to EOF and decodes exactly one message.
// Reading to EOF is the framing: the client half-closes after writing,
// so no length prefix is needed and a client that sends two values in
// one connection fails decoding instead of queueing a second job.
func (s *Server) read(connection *net.UnixConn) (Message, error) {
	connection.SetReadDeadline(time.Now().Add(readTimeout))

	data, err := io.ReadAll(io.LimitReader(connection, maxMessageSize+1))
	if err != nil {
		return Message{}, &TransportError{Op: "read", Path: s.path, Err: err}
	}
	if len(data) > maxMessageSize {
		return Message{}, &DecodeError{Err: fmt.Errorf("message exceeds %d bytes", maxMessageSize)}
	}

	var message Message
	if err := codec.Unmarshal(data, &message); err != nil {
		return Message{}, &DecodeError{Err: err}
	}
	if err := message.Validate(); err != nil {
		return Message{}, &DecodeError{Err: err}
	}
	return message, nil
}

// Close stops the listener and removes the socket file. It is safe to
// call more than once; later calls return the first result.
//
// A Receive blocked in accept returns ErrServerClosed. The closed
// channel is closed before the listener so that accept can tell a
// shutdown apart from a genuine accept failure. The socket file is
// removed here rather than by the net package so that a failure to
// unlink (typically a runtime directory the dropped identity cannot
// write) is reported to the caller instead of being discarded.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		listenerErr := s.listener.Close()
		removeErr := os.Remove(s.path)
		if errors.Is(removeErr, os.ErrNotExist) {
			removeErr = nil
		}
		s.closeErr = errors.Join(listenerErr, removeErr)
		s.logger.Info("ipc server closed", "path", s.path)
	})
	return s.closeErr
}
