// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package questions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/dinstaller/cmd/dinstaller/cli"
	"github.com/bureau-foundation/dinstaller/lib/question"
	"github.com/bureau-foundation/dinstaller/lib/questionui"
	"github.com/bureau-foundation/dinstaller/lib/secret"
)

func answerCommand(streams Streams) *cli.Command {
	var (
		conn          connection
		passwordStdin bool
	)
	return &cli.Command{
		Name:    "answer",
		Summary: "Answer a question",
		Description: `Answer question ID with OPTION. Without OPTION the question is shown
as an interactive prompt, which needs a terminal on stdin.

For a disk-unlock question, --password-stdin reads the passphrase from
the first line of stdin; the prompt asks for it otherwise.`,
		Usage: "dinstaller questions answer ID [OPTION] [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("answer", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			flagSet.BoolVar(&passwordStdin, "password-stdin", false, "read the passphrase from stdin")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) < 1 || len(args) > 2 {
				return errors.New("usage: dinstaller questions answer ID [OPTION]")
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := callContext(ctx)
			defer cancel()
			client := conn.client()

			fields := map[string]any{"id": id}
			if len(args) == 2 {
				fields["option"] = args[1]
				if passwordStdin {
					password, err := secret.ReadLine(streams.In)
					if err != nil {
						return fmt.Errorf("reading passphrase: %w", err)
					}
					defer password.Close()
					fields["password"] = password.String()
				}
			} else {
				if streams.Prompt == nil {
					return errors.New("OPTION is required when stdin is not a terminal")
				}
				entry, err := lookup(ctx, conn, id)
				if err != nil {
					return err
				}
				result, err := streams.Prompt(promptFor(entry))
				if err != nil {
					return err
				}
				if result.Cancelled {
					return &cli.ExitError{Code: 1}
				}
				fields["option"] = result.Option
				if result.Password != "" {
					fields["password"] = result.Password
				}
			}

			if err := client.Call(ctx, "answer", fields, nil); err != nil {
				return err
			}
			logger.Info("question answered", "question_id", id, "option", fields["option"])
			return nil
		},
	}
}

func parseID(value string) (uint32, error) {
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid question ID %q", value)
	}
	return uint32(id), nil
}

func lookup(ctx context.Context, conn connection, id uint32) (questionEntry, error) {
	var entries []questionEntry
	if err := conn.client().Call(ctx, "list", nil, &entries); err != nil {
		return questionEntry{}, err
	}
	for _, entry := range entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return questionEntry{}, fmt.Errorf("question %d not found", id)
}

func promptFor(entry questionEntry) questionui.Prompt {
	prompt := questionui.Prompt{
		ID:            entry.ID,
		Text:          entry.Text,
		Options:       entry.Options,
		DefaultOption: entry.DefaultOption,
		Device:        entry.Device,
		Label:         entry.Label,
		Attempt:       entry.Attempt,
	}
	if entry.Kind == question.KindLuksActivation.String() {
		prompt.PasswordOption = question.OptionDecrypt
	}
	return prompt
}
