// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bash/toby/cmd/toby/cli"
	"github.com/bash/toby/lib/archive"
	"github.com/bash/toby/lib/config"
	"github.com/bash/toby/lib/intake"
	"github.com/bash/toby/lib/job"
	"github.com/bash/toby/lib/jobid"
	"github.com/bash/toby/lib/process"
	"github.com/bash/toby/lib/runner"
)

func jobCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "job",
		Summary: "Run and inspect jobs",
		Subcommands: []*cli.Command{
			jobRunCommand(out),
			jobListCommand(out),
			jobShowCommand(out),
			jobLogCommand(out),
		},
	}
}

func jobRunCommand(out io.Writer) *cli.Command {
	var options configOptions
	return &cli.Command{
		Name:    "run",
		Summary: "Queue a job for a project",
		Args:    []string{"project"},
		Description: `Queue a job for a project on the local worker. The job runs
asynchronously; use "toby job log" to follow its output.`,
		Examples: []cli.Example{
			{Description: "Deploy the site project", Command: "toby job run site"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			options.bind(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			cfg, err := options.load()
			if err != nil {
				return err
			}
			submitter := &intake.Submitter{
				Config:    cfg,
				Allocator: jobid.New(cfg.RuntimeDir()),
				Sender:    intake.IPCSender{RuntimeDir: cfg.RuntimeDir()},
				Logger:    process.NewLogger(false),
			}
			submitted, err := submitter.SubmitCLI(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Queued %s #%d\n", submitted.Project, submitted.ID)
			return nil
		},
	}
}

func jobListCommand(out io.Writer) *cli.Command {
	var options configOptions
	var limit int
	return &cli.Command{
		Name:    "list",
		Summary: "List a project's finished jobs",
		Args:    []string{"project"},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			options.bind(flagSet)
			flagSet.IntVarP(&limit, "limit", "n", 20, "show at most this many of the most recent jobs (0 for all)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			return withStore(options, args[0], func(cfg *config.Config, store archive.Store) error {
				entries, err := store.List(args[0])
				if err != nil {
					return err
				}
				if limit > 0 && len(entries) > limit {
					entries = entries[len(entries)-limit:]
				}
				if len(entries) == 0 {
					fmt.Fprintf(out, "No finished jobs for %s.\n", args[0])
					return nil
				}
				renderJobTable(out, entries, isTerminal(out))
				return nil
			})
		},
	}
}

func jobShowCommand(out io.Writer) *cli.Command {
	var options configOptions
	return &cli.Command{
		Name:    "show",
		Summary: "Show one finished job",
		Args:    []string{"project", "id"},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
			options.bind(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			id, err := parseJobID(args[1])
			if err != nil {
				return err
			}
			return withStore(options, args[0], func(cfg *config.Config, store archive.Store) error {
				record, err := store.Get(args[0], id)
				if errors.Is(err, archive.ErrNotFound) {
					return fmt.Errorf("no finished job %s #%d", args[0], id)
				}
				if err != nil {
					return err
				}
				renderJob(out, args[0], id, record, runner.LogPath(cfg.LogDir(), args[0], id), isTerminal(out))
				return nil
			})
		},
	}
}

func jobLogCommand(out io.Writer) *cli.Command {
	var options configOptions
	return &cli.Command{
		Name:    "log",
		Summary: "Print a job's log",
		Args:    []string{"project", "id"},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("log", pflag.ContinueOnError)
			options.bind(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			id, err := parseJobID(args[1])
			if err != nil {
				return err
			}
			cfg, err := options.load()
			if err != nil {
				return err
			}
			if _, ok := cfg.Project(args[0]); !ok {
				return fmt.Errorf("%w: %q", intake.ErrUnknownProject, args[0])
			}
			file, err := os.Open(runner.LogPath(cfg.LogDir(), args[0], id))
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("no log for %s #%d", args[0], id)
			}
			if err != nil {
				return err
			}
			defer file.Close()
			_, err = io.Copy(out, file)
			return err
		},
	}
}

// withStore loads configuration, checks project exists, and opens the
// archive for the duration of fn.
func withStore(options configOptions, project string, fn func(*config.Config, archive.Store) error) error {
	cfg, err := options.load()
	if err != nil {
		return err
	}
	if _, ok := cfg.Project(project); !ok {
		return fmt.Errorf("%w: %q", intake.ErrUnknownProject, project)
	}
	store, err := archive.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func parseJobID(value string) (job.ID, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid job id %q", value)
	}
	return id, nil
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// outcome renders a job's result, coloured when colour is set.
func outcome(successful, colour bool) string {
	text, style := "failure", failureStyle
	if successful {
		text, style = "success", successStyle
	}
	if !colour {
		return text
	}
	return style.Render(text)
}

func startedAt(record job.ArchivedJob) string {
	return time.Unix(int64(record.StartedAt), 0).Local().Format("2006-01-02 15:04:05")
}

func renderJobTable(out io.Writer, entries []archive.Entry, colour bool) {
	writer := table.NewWriter()
	writer.SetOutputMirror(out)
	writer.SetStyle(table.StyleLight)
	writer.AppendHeader(table.Row{"ID", "Started", "Trigger", "Outcome"})
	for _, entry := range entries {
		writer.AppendRow(table.Row{
			entry.ID,
			startedAt(entry.Record),
			entry.Record.Trigger.String(),
			outcome(entry.Record.Successful, colour),
		})
	}
	writer.Render()
}

func renderJob(out io.Writer, project string, id job.ID, record job.ArchivedJob, logPath string, colour bool) {
	fmt.Fprintf(out, "Project:  %s\n", project)
	fmt.Fprintf(out, "Job:      #%d\n", id)
	fmt.Fprintf(out, "Started:  %s\n", startedAt(record))
	fmt.Fprintf(out, "Trigger:  %s\n", record.Trigger)
	fmt.Fprintf(out, "Outcome:  %s\n", outcome(record.Successful, colour))
	fmt.Fprintf(out, "Log:      %s\n", logPath)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
