// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// PrintHelp writes this command's help to w.
func (c *Command) PrintHelp(w io.Writer) {
	intro := c.Description
	if intro == "" {
		intro = c.Summary
	}
	if intro != "" {
		fmt.Fprintln(w, intro)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Usage: %s\n", c.usage())

	if len(c.Subcommands) > 0 {
		fmt.Fprintln(w, "\nCommands:")
		table := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(table, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		table.Flush()
	}

	if flags := c.flagUsages(); flags != "" {
		fmt.Fprintln(w, "\nFlags:")
		fmt.Fprint(w, flags)
	}

	if len(c.Examples) > 0 {
		fmt.Fprintln(w, "\nExamples:")
		for index, example := range c.Examples {
			if index > 0 {
				fmt.Fprintln(w)
			}
			if example.Description != "" {
				fmt.Fprintf(w, "  # %s\n", example.Description)
			}
			fmt.Fprintf(w, "  $ %s\n", example.Command)
		}
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nSee '%s <command> --help' for details on a command.\n", c.fullName())
	}
}

// usage renders "toby job show <project> <id> [flags]".
func (c *Command) usage() string {
	parts := []string{c.fullName()}
	if len(c.Subcommands) > 0 {
		parts = append(parts, "<command>")
	}
	for _, name := range c.Args {
		parts = append(parts, "<"+name+">")
	}
	if c.Flags != nil {
		parts = append(parts, "[flags]")
	}
	return strings.Join(parts, " ")
}

func (c *Command) flagUsages() string {
	if c.Flags == nil {
		return ""
	}
	return c.Flags().FlagUsages()
}
