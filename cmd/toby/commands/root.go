// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bash/toby/cmd/toby/cli"
	"github.com/bash/toby/lib/config"
)

// Root returns the toby command tree writing results to stdout.
func Root() *cli.Command {
	return newRoot(os.Stdout)
}

func newRoot(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "toby",
		Summary: "Self-hosted deployment bot",
		Description: `toby runs deployment scripts when a webhook, a Telegram command, or an
operator asks for it, and reports the outcome to chat.`,
		Subcommands: []*cli.Command{
			jobCommand(out),
			configCommand(out),
			genSecretCommand(out),
			telegramCommand(out),
			versionCommand(out),
		},
	}
}

// configOptions is the --config-dir flag shared by commands that read
// configuration.
type configOptions struct {
	directory string
}

func (o *configOptions) bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&o.directory, "config-dir", "",
		"configuration directory (default $"+config.DirEnvironmentVariable+" or "+config.DefaultDir+")")
}

func (o *configOptions) load() (*config.Config, error) {
	return config.Load(config.Dir(o.directory))
}
