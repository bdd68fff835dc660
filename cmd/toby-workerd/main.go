// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bash/toby/lib/archive"
	"github.com/bash/toby/lib/cancel"
	"github.com/bash/toby/lib/config"
	"github.com/bash/toby/lib/dispatch"
	"github.com/bash/toby/lib/hook"
	"github.com/bash/toby/lib/identity"
	"github.com/bash/toby/lib/ipc"
	"github.com/bash/toby/lib/job"
	"github.com/bash/toby/lib/jobid"
	"github.com/bash/toby/lib/process"
	"github.com/bash/toby/lib/runner"
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
		fmt.Println("toby-workerd", process.Version())
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
	// Both directories must stay writable after the drop below: the
	// runtime directory for the socket, job counters and archive
	// records, the log directory for job logs.
	for _, directory := range []struct {
		path string
		perm os.FileMode
	}{
		{cfg.RuntimeDir(), 0o755},
		{cfg.LogDir(), 0o750},
	} {
		if err := owner.EnsureDir(directory.path, directory.perm); err != nil {
			return err
		}
	}
	server, err := ipc.Listen(ipc.ServerConfig{RuntimeDir: cfg.RuntimeDir(), Owner: &owner, Logger: logger})
	if err != nil {
		return err
	}
	defer server.Close()

	dropped, err := identity.Become(owner)
	if err != nil {
		return err
	}
	logger.Info("running as", "identity", identity.Current().String(), "dropped", dropped)

	store, err := archive.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	registry, err := hook.FromConfig(cfg, nil, logger)
	if err != nil {
		return err
	}

	worker := &dispatch.Worker{
		Projects: cfg.Projects,
		Runner: runner.New(runner.Config{
			LogDir:     cfg.LogDir(),
			ScriptsDir: cfg.ScriptsDir(),
			Archiver:   store,
			Logger:     logger,
		}),
		Hooks:  registry.Hooks(logger),
		Logger: logger,
	}

	token, source := cancel.New()
	signals, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-signals.Done()
		logger.Info("shutdown requested; finishing the current job")
		source.Cancel()
	}()

	receiver := &dispatch.IPCReceiver{Messages: server, Allocator: jobid.New(cfg.RuntimeDir())}
	// Only the token stops the loop, so a signal never reaches a
	// running job's context.
	return worker.Run(context.Background(), cancel.Cancelable[job.Job](receiver, token))
}
