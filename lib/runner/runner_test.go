// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bash/toby/lib/clock"
	"github.com/bash/toby/lib/config"
	"github.com/bash/toby/lib/job"
	"github.com/bash/toby/lib/testutil"
)

type archiveCall struct {
	project string
	id      job.ID
	record  job.ArchivedJob
}

// recordingArchiver captures Archive calls.
type recordingArchiver struct {
	mutex sync.Mutex
	calls []archiveCall
	err   error
}

func (a *recordingArchiver) Archive(project string, id job.ID, record job.ArchivedJob) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.calls = append(a.calls, archiveCall{project, id, record})
	return a.err
}

type fixture struct {
	runner     *Runner
	archiver   *recordingArchiver
	logDir     string
	tempDir    string
	scriptsDir string
}

var startTime = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		archiver:   &recordingArchiver{},
		logDir:     t.TempDir(),
		tempDir:    t.TempDir(),
		scriptsDir: t.TempDir(),
	}
	f.runner = New(Config{
		LogDir:     f.logDir,
		ScriptsDir: f.scriptsDir,
		TempDir:    f.tempDir,
		Archiver:   f.archiver,
		Clock:      clock.Fake(startTime),
	})
	return f
}

func (f *fixture) readLog(t *testing.T, j job.Job) string {
	t.Helper()
	data, err := os.ReadFile(LogPath(f.logDir, j.Project, j.ID))
	if err != nil {
		t.Fatalf("reading job log: %v", err)
	}
	return string(data)
}

func shell(script string) config.Script {
	return config.Script{Command: []string{"sh", "-c", script}}
}

func TestRunSuccessfulJob(t *testing.T) {
	f := newFixture(t)
	j := job.Job{ID: 5, Project: "site", Trigger: job.Webhook("ci")}
	project := config.Project{
		Scripts: []config.Script{
			shell(`echo "id=$TOBY_JOB_ID trigger=$TOBY_JOB_TRIGGER target=$TARGET"`),
			shell(`pwd`),
		},
		Environment: map[string]string{"TARGET": "production"},
	}

	result := f.runner.Run(context.Background(), j, project)
	if !result.Successful || result.Err != nil {
		t.Fatalf("result = %+v", result)
	}
	if !result.StartedAt.Equal(startTime) {
		t.Errorf("StartedAt = %v", result.StartedAt)
	}

	log := f.readLog(t, j)
	for _, want := range []string{
		"[toby] Running command sh -c echo",
		"id=5 trigger=webhook target=production",
		filepath.Join(f.tempDir, sandboxPrefix),
		"[toby] Job finished: success",
	} {
		if !strings.Contains(log, want) {
			t.Errorf("log missing %q:\n%s", want, log)
		}
	}

	if len(f.archiver.calls) != 1 {
		t.Fatalf("archived %d times, want 1", len(f.archiver.calls))
	}
	call := f.archiver.calls[0]
	want := archiveCall{"site", 5, job.ArchivedJob{StartedAt: uint64(startTime.Unix()), Successful: true, Trigger: job.Webhook("ci")}}
	if call != want {
		t.Errorf("archive call = %+v, want %+v", call, want)
	}
}

func TestSandboxIsRemoved(t *testing.T) {
	f := newFixture(t)
	j := job.Job{ID: 1, Project: "site", Trigger: job.CLI()}
	f.runner.Run(context.Background(), j, config.Project{Scripts: []config.Script{shell("touch artifact")}})

	entries, err := os.ReadDir(f.tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("sandbox left behind: %v", entries)
	}
}

func TestFailureAbortsRemainingScripts(t *testing.T) {
	f := newFixture(t)
	j := job.Job{ID: 2, Project: "site", Trigger: job.CLI()}
	project := config.Project{Scripts: []config.Script{
		shell("echo first"),
		shell("exit 3"),
		shell("echo never-runs"),
	}}

	result := f.runner.Run(context.Background(), j, project)
	if result.Successful {
		t.Fatal("job succeeded despite failing script")
	}
	var scriptErr *ScriptError
	if !errors.As(result.Err, &scriptErr) {
		t.Fatalf("Err = %v, want *ScriptError", result.Err)
	}
	if scriptErr.Index != 1 || scriptErr.ExitCode != 3 {
		t.Errorf("ScriptError = %+v", scriptErr)
	}

	log := f.readLog(t, j)
	if strings.Contains(log, "never-runs") {
		t.Errorf("script after failure ran:\n%s", log)
	}
	if !strings.Contains(log, "[toby] Job finished: failure") {
		t.Errorf("log missing failure trailer:\n%s", log)
	}
	if len(f.archiver.calls) != 1 || f.archiver.calls[0].record.Successful {
		t.Fatalf("archive calls = %+v", f.archiver.calls)
	}
}

func TestAllowedFailureContinues(t *testing.T) {
	f := newFixture(t)
	j := job.Job{ID: 3, Project: "site", Trigger: job.CLI()}
	project := config.Project{Scripts: []config.Script{
		{Command: []string{"sh", "-c", "exit 1"}, AllowFailure: true},
		shell("echo after-allowed"),
	}}

	result := f.runner.Run(context.Background(), j, project)
	if !result.Successful {
		t.Fatalf("job failed: %v", result.Err)
	}
	log := f.readLog(t, j)
	if !strings.Contains(log, "[toby] Command failed (allowed)") || !strings.Contains(log, "after-allowed") {
		t.Errorf("log:\n%s", log)
	}
}

func TestMissingExecutableIsScriptError(t *testing.T) {
	f := newFixture(t)
	j := job.Job{ID: 4, Project: "site", Trigger: job.CLI()}
	result := f.runner.Run(context.Background(), j, config.Project{Scripts: []config.Script{
		{Command: []string{"toby-definitely-not-installed"}},
	}})

	var scriptErr *ScriptError
	if !errors.As(result.Err, &scriptErr) || scriptErr.Err == nil || scriptErr.ExitCode != -1 {
		t.Fatalf("Err = %v, want spawn *ScriptError", result.Err)
	}
	if len(f.archiver.calls) != 1 {
		t.Fatalf("archived %d times, want 1", len(f.archiver.calls))
	}
}

func TestScriptsDirOnPath(t *testing.T) {
	f := newFixture(t)
	helper := filepath.Join(f.scriptsDir, "toby-helper")
	testutil.WriteFile(t, helper, "#!/bin/sh\necho helper-ran\n")
	if err := os.Chmod(helper, 0755); err != nil {
		t.Fatal(err)
	}

	j := job.Job{ID: 6, Project: "site", Trigger: job.CLI()}
	result := f.runner.Run(context.Background(), j, config.Project{Scripts: []config.Script{
		{Command: []string{"toby-helper"}},
	}})
	if !result.Successful {
		t.Fatalf("job failed: %v", result.Err)
	}
	if log := f.readLog(t, j); !strings.Contains(log, "helper-ran") {
		t.Errorf("log:\n%s", log)
	}
}

func TestSandboxFailureIsArchived(t *testing.T) {
	f := newFixture(t)
	f.runner.tempDir = filepath.Join(t.TempDir(), "missing", "dir")

	j := job.Job{ID: 7, Project: "site", Trigger: job.Telegram("alice")}
	result := f.runner.Run(context.Background(), j, config.Project{Scripts: []config.Script{shell("true")}})

	var sandboxErr *SandboxError
	if !errors.As(result.Err, &sandboxErr) || sandboxErr.Op != "directory" {
		t.Fatalf("Err = %v, want directory *SandboxError", result.Err)
	}
	if len(f.archiver.calls) != 1 || f.archiver.calls[0].record.Successful {
		t.Fatalf("archive calls = %+v", f.archiver.calls)
	}
}

func TestArchiveFailureDoesNotFailJob(t *testing.T) {
	f := newFixture(t)
	f.archiver.err = errors.New("disk full")

	result := f.runner.Run(context.Background(), job.Job{ID: 8, Project: "site", Trigger: job.CLI()},
		config.Project{Scripts: []config.Script{shell("true")}})
	if !result.Successful {
		t.Fatalf("job failed: %v", result.Err)
	}
}

func TestLogAppendsAcrossRuns(t *testing.T) {
	f := newFixture(t)
	j := job.Job{ID: 9, Project: "site", Trigger: job.CLI()}
	project := config.Project{Scripts: []config.Script{shell("echo run")}}
	f.runner.Run(context.Background(), j, project)
	f.runner.Run(context.Background(), j, project)

	if count := strings.Count(f.readLog(t, j), "[toby] Job finished"); count != 2 {
		t.Fatalf("log has %d trailers, want 2", count)
	}
}

func TestBuildEnvironment(t *testing.T) {
	environment := buildEnvironment(
		[]string{"PATH=/usr/bin:/bin", "HOME=/root"},
		map[string]string{"B": "2", "A": "1"},
		job.Job{ID: 12, Trigger: job.Telegram("bob")},
		"/etc/toby/scripts.d",
	)
	if got := lookupEnvironment(environment, "PATH"); got != "/usr/bin:/bin:/etc/toby/scripts.d" {
		t.Errorf("PATH = %q", got)
	}
	if got := lookupEnvironment(environment, "TOBY_JOB_ID"); got != "12" {
		t.Errorf("TOBY_JOB_ID = %q", got)
	}
	if got := lookupEnvironment(environment, "TOBY_JOB_TRIGGER"); got != "telegram" {
		t.Errorf("TOBY_JOB_TRIGGER = %q", got)
	}
	if got := lookupEnvironment(environment, "A"); got != "1" {
		t.Errorf("A = %q", got)
	}
}

func TestExtendPath(t *testing.T) {
	tests := []struct{ path, directory, want string }{
		{"/foo:/bar", "/etc/toby/scripts.d", "/foo:/bar:/etc/toby/scripts.d"},
		{"", "/etc/toby/scripts.d", "/etc/toby/scripts.d"},
		{"/foo", "", "/foo"},
	}
	for _, test := range tests {
		if got := extendPath(test.path, test.directory); got != test.want {
			t.Errorf("extendPath(%q, %q) = %q, want %q", test.path, test.directory, got, test.want)
		}
	}
}
