// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package hook

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/bash/toby/lib/config"
	"github.com/bash/toby/lib/job"
)

// execTimeout bounds one hook program run.
const execTimeout = time.Minute

// maxOutputInError bounds the hook output quoted in an error.
const maxOutputInError = 1024

// ExecHook runs an external program for every event.
type ExecHook struct {
	command []string
	sendLog config.SendLog
}

// NewExecHook returns a hook running command. The log path is exposed
// in TOBY_JOB_LOG only when sendLog allows it for the outcome.
func NewExecHook(command []string, sendLog config.SendLog) *ExecHook {
	return &ExecHook{command: command, sendLog: sendLog}
}

// BeforeJob runs the program with TOBY_HOOK_EVENT=before_job.
func (h *ExecHook) BeforeJob(ctx context.Context, j job.Job) error {
	return h.run(ctx, "before_job", j, nil)
}

// AfterJob runs the program with TOBY_HOOK_EVENT=after_job.
func (h *ExecHook) AfterJob(ctx context.Context, j job.Job, result job.Result) error {
	return h.run(ctx, "after_job", j, &result)
}

func (h *ExecHook) run(ctx context.Context, event string, j job.Job, result *job.Result) error {
	ctx, cancel := context.WithTimeout(ctx, execTimeout)
	defer cancel()

	command := exec.CommandContext(ctx, h.command[0], h.command[1:]...)
	command.Env = append(os.Environ(), hookEnvironment(event, j, result, h.sendLog)...)
	command.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	command.Cancel = func() error {
		return syscall.Kill(-command.Process.Pid, syscall.SIGKILL)
	}

	output, err := command.CombinedOutput()
	if err != nil {
		text := strings.TrimSpace(string(output))
		if len(text) > maxOutputInError {
			text = text[len(text)-maxOutputInError:]
		}
		return fmt.Errorf("running %s: %w: %s", strings.Join(h.command, " "), err, text)
	}
	return nil
}

// hookEnvironment describes the event to the hook program.
func hookEnvironment(event string, j job.Job, result *job.Result, sendLog config.SendLog) []string {
	environment := []string{
		"TOBY_HOOK_EVENT=" + event,
		"TOBY_JOB_ID=" + strconv.FormatUint(j.ID, 10),
		"TOBY_JOB_PROJECT=" + j.Project,
		"TOBY_JOB_TRIGGER=" + j.Trigger.Name(),
	}
	if result == nil {
		return environment
	}
	environment = append(environment, "TOBY_JOB_SUCCESSFUL="+strconv.FormatBool(result.Successful))
	if sendLog.ShouldSend(result.Successful) && result.LogPath != "" {
		environment = append(environment, "TOBY_JOB_LOG="+result.LogPath)
	}
	return environment
}
