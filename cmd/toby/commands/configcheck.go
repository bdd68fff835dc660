// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bash/toby/cmd/toby/cli"
	"github.com/bash/toby/lib/config"
	"github.com/bash/toby/lib/hook"
)

func configCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:        "config",
		Summary:     "Inspect configuration",
		Subcommands: []*cli.Command{configCheckCommand(out)},
	}
}

func configCheckCommand(out io.Writer) *cli.Command {
	var options configOptions
	return &cli.Command{
		Name:    "check",
		Summary: "Validate the configuration directory",
		Description: `Load toby.yaml, tokens.yaml, and every project file, then report
problems. Exits 1 when the configuration would be rejected by the daemons.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("check", pflag.ContinueOnError)
			options.bind(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			return checkConfig(out, config.Dir(options.directory))
		},
	}
}

func checkConfig(out io.Writer, directory string) error {
	cfg, err := config.LoadUnvalidated(directory)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return &cli.ExitError{Code: 1}
	}

	for _, warning := range cfg.Warnings() {
		fmt.Fprintf(out, "warning: %s\n", warning)
	}
	if err := cfg.Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Fprintf(out, "error: %s\n", line)
		}
		return &cli.ExitError{Code: 1}
	}

	registry, err := hook.FromConfig(cfg, nil, nil)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return &cli.ExitError{Code: 1}
	}

	fmt.Fprintf(out, "%s: %d project(s), %d token(s)", directory, len(cfg.Projects), len(cfg.Tokens))
	if names := registry.Names(); len(names) > 0 {
		fmt.Fprintf(out, ", hooks: %s", strings.Join(names, ", "))
	}
	fmt.Fprintln(out)
	return nil
}
