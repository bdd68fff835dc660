// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/bash/toby/cmd/toby/cli"
	"github.com/bash/toby/lib/process"
)

func versionCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print the toby version",
		Run: func(ctx context.Context, args []string) error {
			fmt.Fprintln(out, "toby", process.Version())
			return nil
		},
	}
}
