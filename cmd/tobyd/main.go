// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bash/toby/lib/archive"
	"github.com/bash/toby/lib/cancel"
	"github.com/bash/toby/lib/config"
	"github.com/bash/toby/lib/dispatch"
	"github.com/bash/toby/lib/hook"
	"github.com/bash/toby/lib/httpd"
	"github.com/bash/toby/lib/identity"
	"github.com/bash/toby/lib/intake"
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
		fmt.Println("tobyd", process.Version())
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
	socket, err := ipc.Listen(ipc.ServerConfig{RuntimeDir: cfg.RuntimeDir(), Owner: &owner, Logger: logger})
	if err != nil {
		return err
	}
	defer socket.Close()
	listener, err := net.Listen("tcp", cfg.ListenAddress())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.ListenAddress(), err)
	}
	if _, err := identity.Become(owner); err != nil {
		listener.Close()
		return err
	}

	store, err := archive.Open(cfg)
	if err != nil {
		listener.Close()
		return err
	}
	defer store.Close()
	registry, err := hook.FromConfig(cfg, nil, logger)
	if err != nil {
		listener.Close()
		return err
	}

	allocator := jobid.New(cfg.RuntimeDir())
	queue := dispatch.NewQueue(cfg.Main.Worker.QueueSize)
	server := &httpd.Server{
		Submitter: &intake.Submitter{Config: cfg, Allocator: allocator, Sender: queue, Logger: logger},
		Telegram:  httpd.TelegramFromConfig(cfg, nil),
		Logger:    logger,
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	token, source := cancel.New()

	var group sync.WaitGroup
	var serveErr error
	group.Go(func() {
		serveErr = httpd.ServeListener(ctx, listener, httpd.ServeConfigFromConfig(cfg, server.Router(), logger))
		// A failed listener takes the whole process down.
		stop()
	})
	group.Go(func() {
		forwardSocket(ctx, &dispatch.IPCReceiver{Messages: socket, Allocator: allocator}, queue, logger)
	})

	go func() {
		<-ctx.Done()
		logger.Info("shutdown requested; finishing the current job")
		source.Cancel()
		socket.Close()
	}()

	workerErr := worker.Run(context.Background(), cancel.Cancelable[job.Job](queue, token))
	stop()
	queue.Close()
	group.Wait()
	return errors.Join(serveErr, workerErr)
}

// forwardSocket moves jobs from the worker socket into the queue until
// the socket closes.
func forwardSocket(ctx context.Context, receiver *dispatch.IPCReceiver, queue *dispatch.Queue, logger *slog.Logger) {
	for {
		next, err := receiver.Receive(ctx)
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Error("receiving job from socket failed", "error", err)
			continue
		}
		if err := queue.Submit(ctx, next); err != nil {
			logger.Error("queueing socket job failed", "job_id", next.ID, "project", next.Project, "error", err)
			return
		}
	}
}
