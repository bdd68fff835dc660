// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/bash/toby/lib/archive"
	"github.com/bash/toby/lib/clock"
	"github.com/bash/toby/lib/config"
	"github.com/bash/toby/lib/job"
)

// sandboxPrefix names job working directories.
const sandboxPrefix = "toby-job-"

// Config configures a Runner.
type Config struct {
	// LogDir is the job log root; logs go to jobs/<project>/<id>.log.
	LogDir string

	// ScriptsDir is appended to every script's PATH.
	ScriptsDir string

	// TempDir holds sandboxes. Defaults to os.TempDir().
	TempDir string

	Archiver archive.Archiver
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Runner executes jobs. Run is not meant to be called concurrently;
// toby runs one job at a time.
type Runner struct {
	logDir     string
	scriptsDir string
	tempDir    string
	archiver   archive.Archiver
	clock      clock.Clock
	logger     *slog.Logger
}

// New returns a Runner.
func New(config Config) *Runner {
	runner := &Runner{
		logDir:     config.LogDir,
		scriptsDir: config.ScriptsDir,
		tempDir:    config.TempDir,
		archiver:   config.Archiver,
		clock:      config.Clock,
		logger:     config.Logger,
	}
	if runner.tempDir == "" {
		runner.tempDir = os.TempDir()
	}
	if runner.clock == nil {
		runner.clock = clock.Real()
	}
	if runner.logger == nil {
		runner.logger = slog.Default()
	}
	return runner
}

// LogPath returns the log file of a job.
func LogPath(logDir, project string, id job.ID) string {
	return filepath.Join(logDir, "jobs", project, strconv.FormatUint(id, 10)+".log")
}

// Run executes j with project's scripts and archives the outcome. It
// never returns an error: every failure is reported in the Result, and
// the archive record is written on every path.
func (r *Runner) Run(ctx context.Context, j job.Job, project config.Project) job.Result {
	startedAt := r.clock.Now()
	logger := r.logger.With("job_id", j.ID, "project", j.Project)
	result := job.Result{
		StartedAt: startedAt,
		LogPath:   LogPath(r.logDir, j.Project, j.ID),
	}

	result.Err = r.execute(ctx, j, project, result.LogPath, logger)
	result.Successful = result.Err == nil
	result.Duration = r.clock.Now().Sub(startedAt)

	if err := r.archiver.Archive(j.Project, j.ID, j.Archive(startedAt, result.Successful)); err != nil {
		logger.Error("archiving job failed", "error", err)
	}

	if result.Successful {
		logger.Info("job succeeded", "duration", result.Duration)
	} else {
		logger.Warn("job failed", "duration", result.Duration, "error", result.Err)
	}
	return result
}

// execute prepares the log and sandbox and runs the scripts.
func (r *Runner) execute(ctx context.Context, j job.Job, project config.Project, logPath string, logger *slog.Logger) error {
	logFile, err := openLog(logPath)
	if err != nil {
		return &SandboxError{Op: "log", Err: err}
	}
	defer logFile.Close()

	sandbox := filepath.Join(r.tempDir, sandboxPrefix+uuid.NewString())
	if err := os.Mkdir(sandbox, 0700); err != nil {
		sandboxErr := &SandboxError{Op: "directory", Err: err}
		mark(logFile, "Job failed: %v", sandboxErr)
		return sandboxErr
	}
	defer func() {
		if err := os.RemoveAll(sandbox); err != nil {
			logger.Warn("removing job sandbox failed", "path", sandbox, "error", err)
		}
	}()

	environment := buildEnvironment(os.Environ(), project.Environment, j, r.scriptsDir)
	startedAt := r.clock.Now()

	var jobErr error
	for index, script := range project.Scripts {
		mark(logFile, "Running command %s", strings.Join(script.Command, " "))
		err := runCommand(ctx, script.Command, sandbox, environment, logFile)
		if err == nil {
			continue
		}
		err.Index = index
		if script.AllowFailure {
			mark(logFile, "Command failed (allowed): %v", err)
			logger.Info("script failed, continuing", "index", index, "error", err)
			continue
		}
		mark(logFile, "Command failed: %v", err)
		jobErr = err
		break
	}

	outcome := "success"
	if jobErr != nil {
		outcome = "failure"
	}
	mark(logFile, "Job finished: %s (%s)", outcome, r.clock.Now().Sub(startedAt).Round(time.Millisecond))
	return jobErr
}

// openLog opens the job log for appending, creating its directory.
func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	return os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
}

// mark writes a "[toby] " line to the job log. Log write failures do
// not fail the job.
func mark(log io.Writer, format string, args ...any) {
	fmt.Fprintf(log, "[toby] "+format+"\n", args...)
}

// runCommand runs one script in its own process group with output
// appended to log.
func runCommand(ctx context.Context, argv []string, directory string, environment []string, log *os.File) *ScriptError {
	scriptErr := &ScriptError{Command: argv, ExitCode: -1}

	path, err := lookPath(argv[0], lookupEnvironment(environment, "PATH"))
	if err != nil {
		scriptErr.Err = err
		return scriptErr
	}

	command := exec.CommandContext(ctx, path, argv[1:]...)
	command.Args[0] = argv[0]
	command.Dir = directory
	command.Env = environment
	command.Stdin = nil
	command.Stdout = log
	command.Stderr = log

	// Signal the whole group (negative PID) so children spawned by the
	// script die with it.
	command.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	command.Cancel = func() error {
		return syscall.Kill(-command.Process.Pid, syscall.SIGKILL)
	}

	err = command.Run()
	if err == nil {
		return nil
	}

	var exitError *exec.ExitError
	if errors.As(err, &exitError) {
		scriptErr.ExitCode = exitError.ExitCode()
		if scriptErr.ExitCode == -1 {
			scriptErr.Err = err
		}
		return scriptErr
	}
	scriptErr.Err = err
	return scriptErr
}
