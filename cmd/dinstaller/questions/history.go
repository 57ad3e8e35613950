// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package questions

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/dinstaller/cmd/dinstaller/cli"
)

func historyCommand(streams Streams) *cli.Command {
	var (
		conn   connection
		output cli.JSONOutput
		limit  int
	)
	return &cli.Command{
		Name:    "history",
		Summary: "Show recent question events from the journal",
		Description: `Print the most recent added, answered and removed events recorded by
the question journal, newest first. Passphrases are never recorded.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("history", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			output.AddFlag(flagSet)
			flagSet.IntVarP(&limit, "limit", "n", 20, "number of events")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			ctx, cancel := callContext(ctx)
			defer cancel()

			var events []historyEntry
			if err := conn.client().Call(ctx, "history", map[string]any{"limit": limit}, &events); err != nil {
				return err
			}
			if done, err := output.Emit(streams.Out, events); done {
				return err
			}
			if len(events) == 0 {
				logger.Info("journal is empty")
				return nil
			}
			table := tabwriter.NewWriter(streams.Out, 2, 0, 2, ' ', 0)
			fmt.Fprintln(table, "TIME\tID\tEVENT\tCLASS\tTEXT\tANSWER")
			for _, event := range events {
				fmt.Fprintf(table, "%s\t%d\t%s\t%s\t%s\t%s\n",
					event.At.Local().Format(time.DateTime), event.QuestionID, event.Event,
					event.Class, event.Text, orDash(event.Answer))
			}
			return table.Flush()
		},
	}
}
