// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestExecuteDispatchesNestedSubcommands(t *testing.T) {
	var called string
	var received []string

	root := &Command{
		Name:   "toby",
		Output: &bytes.Buffer{},
		Subcommands: []*Command{
			{
				Name: "job",
				Subcommands: []*Command{
					{
						Name: "run",
						Args: []string{"project"},
						Run: func(ctx context.Context, args []string) error {
							called = "job run"
							received = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"job", "run", "site"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if called != "job run" {
		t.Errorf("dispatched to %q", called)
	}
	if len(received) != 1 || received[0] != "site" {
		t.Errorf("args = %v, want [site]", received)
	}
}

func TestExecuteParsesFlags(t *testing.T) {
	var directory string
	command := &Command{
		Name: "check",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("check", pflag.ContinueOnError)
			flagSet.StringVar(&directory, "config-dir", "", "configuration directory")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 0 {
				t.Errorf("leftover args %v", args)
			}
			return nil
		},
	}
	if err := command.Execute(context.Background(), []string{"--config-dir", "/srv/toby"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if directory != "/srv/toby" {
		t.Errorf("config-dir = %q", directory)
	}
}

func TestExecuteSuggestsCommand(t *testing.T) {
	root := &Command{
		Name:        "toby",
		Output:      &bytes.Buffer{},
		Subcommands: []*Command{{Name: "version", Run: func(context.Context, []string) error { return nil }}},
	}
	err := root.Execute(context.Background(), []string{"verison"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "version"`) {
		t.Fatalf("err = %v, want suggestion", err)
	}

	err = root.Execute(context.Background(), []string{"deploy-everything"})
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Fatalf("err = %v, want no suggestion", err)
	}
}

func TestExecuteSuggestsFlag(t *testing.T) {
	command := &Command{
		Name: "list",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.Int("limit", 20, "rows to show")
			return flagSet
		},
		Run: func(context.Context, []string) error { return nil },
	}
	err := command.Execute(context.Background(), []string{"--limt", "3"})
	if err == nil || !strings.Contains(err.Error(), "did you mean --limit?") {
		t.Fatalf("err = %v, want flag suggestion", err)
	}
}

func TestExecuteRequiresSubcommand(t *testing.T) {
	var help bytes.Buffer
	root := &Command{
		Name:    "toby",
		Summary: "Deployment bot",
		Output:  &help,
		Subcommands: []*Command{
			{Name: "job", Summary: "Inspect and run jobs", Run: func(context.Context, []string) error { return nil }},
		},
	}
	if err := root.Execute(context.Background(), nil); err == nil {
		t.Fatal("expected error without subcommand")
	}
	if !strings.Contains(help.String(), "Inspect and run jobs") {
		t.Errorf("help output missing subcommand summary:\n%s", help.String())
	}
}

func TestHelpFlagPrintsHelp(t *testing.T) {
	var help bytes.Buffer
	command := &Command{
		Name:     "gen-secret",
		Summary:  "Print a random token secret",
		Output:   &help,
		Examples: []Example{{Description: "Generate a secret", Command: "toby gen-secret"}},
		Run: func(context.Context, []string) error {
			t.Fatal("Run called for --help")
			return nil
		},
	}
	if err := command.Execute(context.Background(), []string{"--help"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, want := range []string{"Print a random token secret", "Usage:", "# Generate a secret"} {
		if !strings.Contains(help.String(), want) {
			t.Errorf("help missing %q:\n%s", want, help.String())
		}
	}
}

func TestExecuteChecksPositionalArgs(t *testing.T) {
	command := &Command{
		Name: "show",
		Args: []string{"project", "id"},
		Run: func(context.Context, []string) error {
			t.Fatal("Run called with the wrong argument count")
			return nil
		},
	}
	err := command.Execute(context.Background(), []string{"site"})
	if err == nil || !strings.Contains(err.Error(), "missing argument <id>") {
		t.Fatalf("err = %v, want missing <id>", err)
	}

	noArgs := &Command{Name: "version", Run: func(context.Context, []string) error { return nil }}
	if err := noArgs.Execute(context.Background(), []string{"extra"}); err == nil {
		t.Fatal("command without Args accepted a positional argument")
	}
}

func TestUsageLine(t *testing.T) {
	root := &Command{Name: "toby"}
	job := &Command{Name: "job", parent: root, Subcommands: []*Command{{Name: "list"}}}
	show := &Command{
		Name:   "show",
		parent: job,
		Args:   []string{"project", "id"},
		Flags:  func() *pflag.FlagSet { return pflag.NewFlagSet("show", pflag.ContinueOnError) },
	}

	if got, want := job.usage(), "toby job <command>"; got != want {
		t.Errorf("job usage = %q, want %q", got, want)
	}
	if got, want := show.usage(), "toby job show <project> <id> [flags]"; got != want {
		t.Errorf("show usage = %q, want %q", got, want)
	}
}

func TestRequireArgs(t *testing.T) {
	if err := RequireArgs([]string{"site", "3"}, "project", "id"); err != nil {
		t.Fatalf("RequireArgs: %v", err)
	}
	if err := RequireArgs([]string{"site"}, "project", "id"); err == nil || !strings.Contains(err.Error(), "<id>") {
		t.Fatalf("err = %v, want missing <id>", err)
	}
	if err := RequireArgs([]string{"site", "3", "x"}, "project", "id"); err == nil || !strings.Contains(err.Error(), `"x"`) {
		t.Fatalf("err = %v, want unexpected argument", err)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"job", "job", 0},
		{"jbo", "job", 2},
		{"telegarm", "telegram", 2},
		{"log", "list", 3},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}
