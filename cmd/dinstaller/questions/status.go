// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package questions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/dinstaller/cmd/dinstaller/cli"
)

func statusCommand(streams Streams) *cli.Command {
	var (
		conn   connection
		output cli.JSONOutput
	)
	return &cli.Command{
		Name:    "status",
		Summary: "Show the state of the question service",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			output.AddFlag(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			ctx, cancel := callContext(ctx)
			defer cancel()

			var status statusResult
			if err := conn.client().Call(ctx, "status", nil, &status); err != nil {
				return err
			}
			if done, err := output.Emit(streams.Out, status); done {
				return err
			}
			fmt.Fprintf(streams.Out, "uptime:      %s\n", time.Duration(status.UptimeSeconds)*time.Second)
			fmt.Fprintf(streams.Out, "pending:     %d\n", status.Pending)
			fmt.Fprintf(streams.Out, "interactive: %t\n", status.Interactive)
			fmt.Fprintf(streams.Out, "journal:     %t\n", status.Journal)
			return nil
		},
	}
}

func interactiveCommand(streams Streams) *cli.Command {
	var conn connection
	return &cli.Command{
		Name:    "interactive",
		Summary: "Show or switch interactive mode",
		Description: `Without an argument, print whether unmatched questions wait for a
person. "on" or "off" switches the mode for questions asked from now
on; with "off" they are answered with their default option.`,
		Usage: "dinstaller questions interactive [on|off] [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("interactive", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			fields := map[string]any{}
			switch {
			case len(args) == 0:
			case len(args) == 1 && args[0] == "on":
				fields["set"] = true
			case len(args) == 1 && args[0] == "off":
				fields["set"] = false
			default:
				return errors.New("usage: dinstaller questions interactive [on|off]")
			}
			ctx, cancel := callContext(ctx)
			defer cancel()

			var result struct {
				Interactive bool `cbor:"interactive"`
			}
			if err := conn.client().Call(ctx, "interactive", fields, &result); err != nil {
				return err
			}
			mode := "off"
			if result.Interactive {
				mode = "on"
			}
			_, err := fmt.Fprintln(streams.Out, mode)
			return err
		},
	}
}
