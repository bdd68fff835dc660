// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/bash/toby/cmd/toby/cli"
	"github.com/bash/toby/lib/auth"
)

func genSecretCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "gen-secret",
		Summary: "Generate a random token secret",
		Examples: []cli.Example{
			{Description: "Create a secret for a new tokens.yaml entry", Command: "toby gen-secret"},
		},
		Run: func(ctx context.Context, args []string) error {
			secret, err := auth.GenerateSecret()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, secret)
			return nil
		},
	}
}
