// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package httpd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// shutdownTimeout bounds how long in-flight requests may take once
// the serve context is done.
const shutdownTimeout = 10 * time.Second

// ServeConfig configures Serve.
type ServeConfig struct {
	// Address is host:port.
	Address string

	Handler http.Handler

	// CertificateFile and KeyFile enable TLS when both are set.
	CertificateFile string
	KeyFile         string

	Logger *slog.Logger
}

// Serve listens on config.Address and serves until ctx is done, then
// shuts down gracefully. It returns nil after a clean shutdown.
func Serve(ctx context.Context, config ServeConfig) error {
	listener, err := net.Listen("tcp", config.Address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", config.Address, err)
	}
	return ServeListener(ctx, listener, config)
}

// ServeListener is Serve on an existing listener, which it closes.
func ServeListener(ctx context.Context, listener net.Listener, config ServeConfig) error {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server := &http.Server{
		Handler:           config.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	tlsEnabled := config.CertificateFile != "" && config.KeyFile != ""
	serveErr := make(chan error, 1)
	go func() {
		if tlsEnabled {
			serveErr <- server.ServeTLS(listener, config.CertificateFile, config.KeyFile)
		} else {
			serveErr <- server.Serve(listener)
		}
	}()
	logger.Info("http server listening", "address", listener.Addr().String(), "tls", tlsEnabled)

	select {
	case err := <-serveErr:
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownContext, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownContext); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}
