// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package questions

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/dinstaller/cmd/dinstaller/cli"
)

func deleteCommand(streams Streams) *cli.Command {
	var conn connection
	return &cli.Command{
		Name:    "delete",
		Summary: "Withdraw a question",
		Description: `Delete question ID. Whoever waits on it unanswered gets an error
instead of an answer.`,
		Usage: "dinstaller questions delete ID [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("delete", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return errors.New("usage: dinstaller questions delete ID")
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := callContext(ctx)
			defer cancel()
			if err := conn.client().Call(ctx, "delete", map[string]any{"id": id}, nil); err != nil {
				return err
			}
			logger.Info("question deleted", "question_id", id)
			return nil
		},
	}
}
