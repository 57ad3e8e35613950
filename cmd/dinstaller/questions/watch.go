// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package questions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/dinstaller/cmd/dinstaller/cli"
	"github.com/bureau-foundation/dinstaller/lib/clock"
	"github.com/bureau-foundation/dinstaller/lib/service"
)

func watchCommand(streams Streams) *cli.Command {
	var (
		conn     connection
		interval time.Duration
	)
	return &cli.Command{
		Name:    "watch",
		Summary: "Print questions as they come and go",
		Description: `Poll the question service and print one line per change: a question
added, answered or removed. Runs until interrupted.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("watch", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			flagSet.DurationVar(&interval, "interval", time.Second, "polling interval")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if interval <= 0 {
				return errors.New("--interval must be positive")
			}
			err := watch(ctx, conn.client(), streams.Clock, interval, streams.Out)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func watch(ctx context.Context, client *service.Client, clk clock.Clock, interval time.Duration, out io.Writer) error {
	known := map[uint32]questionEntry{}
	for {
		callCtx, cancel := callContext(ctx)
		var entries []questionEntry
		err := client.Call(callCtx, "list", nil, &entries)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		current := make(map[uint32]questionEntry, len(entries))
		for _, entry := range entries {
			current[entry.ID] = entry
		}
		for _, line := range changes(known, entries) {
			fmt.Fprintln(out, line)
		}
		known = current

		timer := clk.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// changes describes how the question set moved from previous to
// current. Lines for removed questions come first, then additions and
// answers in question order.
func changes(previous map[uint32]questionEntry, current []questionEntry) []string {
	var lines []string
	present := make(map[uint32]bool, len(current))
	for _, entry := range current {
		present[entry.ID] = true
	}
	var removed []uint32
	for id := range previous {
		if !present[id] {
			removed = append(removed, id)
		}
	}
	slices.Sort(removed)
	for _, id := range removed {
		lines = append(lines, fmt.Sprintf("removed  %d %s", id, previous[id].Text))
	}

	for _, entry := range current {
		before, seen := previous[entry.ID]
		if !seen {
			lines = append(lines, fmt.Sprintf("added    %d %s (%s)", entry.ID, entry.Text, formatOptions(entry)))
			if entry.Answer == "" {
				continue
			}
		}
		if entry.Answer != "" && before.Answer == "" {
			lines = append(lines, fmt.Sprintf("answered %d %s", entry.ID, entry.Answer))
		}
	}
	return lines
}
