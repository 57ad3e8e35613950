// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package questions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/dinstaller/cmd/dinstaller/cli"
)

func listCommand(streams Streams) *cli.Command {
	var (
		conn    connection
		output  cli.JSONOutput
		pending bool
	)
	return &cli.Command{
		Name:    "list",
		Summary: "List questions in the order they were asked",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			output.AddFlag(flagSet)
			flagSet.BoolVar(&pending, "pending", false, "only unanswered questions")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			ctx, cancel := callContext(ctx)
			defer cancel()

			var entries []questionEntry
			if err := conn.client().Call(ctx, "list", map[string]any{"pending": pending}, &entries); err != nil {
				return err
			}
			if done, err := output.Emit(streams.Out, entries); done {
				return err
			}
			if len(entries) == 0 {
				logger.Info("no questions")
				return nil
			}
			return writeQuestionTable(streams.Out, entries)
		},
	}
}

func writeQuestionTable(w io.Writer, entries []questionEntry) error {
	table := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(table, "ID\tCLASS\tTEXT\tOPTIONS\tANSWER")
	for _, entry := range entries {
		fmt.Fprintf(table, "%d\t%s\t%s\t%s\t%s\n",
			entry.ID, entry.Class, entry.Text, formatOptions(entry), orDash(entry.Answer))
	}
	return table.Flush()
}

// formatOptions lists the options with the default in brackets.
func formatOptions(entry questionEntry) string {
	if len(entry.Options) == 0 {
		return "(free text)"
	}
	parts := make([]string, len(entry.Options))
	for index, option := range entry.Options {
		if option == entry.DefaultOption {
			option = "[" + option + "]"
		}
		parts[index] = option
	}
	return strings.Join(parts, "/")
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
