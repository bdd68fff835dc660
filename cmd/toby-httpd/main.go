// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bash/toby/lib/config"
	"github.com/bash/toby/lib/httpd"
	"github.com/bash/toby/lib/identity"
	"github.com/bash/toby/lib/intake"
	"github.com/bash/toby/lib/jobid"
	"github.com/bash/toby/lib/process"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configDir   string
		debug       bool
		showVersion bool
	)
	pflag.StringVar(&configDir, "config-dir", "", "configuration directory (default $"+config.DirEnvironmentVariable+" or "+config.DefaultDir+")")
	pflag.BoolVar(&debug, "debug", false, "log at debug level")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Println("toby-httpd", process.Version())
		return nil
	}

	logger := process.NewLogger(debug)
	slog.SetDefault(logger)

	cfg, err := config.Load(config.Dir(configDir))
	if err != nil {
		return err
	}
	for _, warning := range cfg.Warnings() {
		logger.Warn("configuration warning", "warning", warning)
	}

	owner, err := identity.Lookup(cfg.Main.User, cfg.Main.Group)
	if err != nil {
		return err
	}
	listener, err := net.Listen("tcp", cfg.ListenAddress())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.ListenAddress(), err)
	}
	if _, err := identity.Become(owner); err != nil {
		listener.Close()
		return err
	}

	server := &httpd.Server{
		Submitter: &intake.Submitter{
			Config:    cfg,
			Allocator: jobid.New(cfg.RuntimeDir()),
			Sender:    intake.IPCSender{RuntimeDir: cfg.RuntimeDir()},
			Logger:    logger,
		},
		Telegram: httpd.TelegramFromConfig(cfg, nil),
		Logger:   logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return httpd.ServeListener(ctx, listener, httpd.ServeConfigFromConfig(cfg, server.Router(), logger))
}
