// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package questions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/dinstaller/cmd/dinstaller/cli"
	"github.com/bureau-foundation/dinstaller/lib/service"
)

// waitSlice is how long one "wait" call may block on the server.
const waitSlice = 30 * time.Second

func askCommand(streams Streams) *cli.Command {
	var (
		conn          connection
		options       []string
		defaultOption string
		class         string
		timeout       time.Duration
	)
	return &cli.Command{
		Name:    "ask",
		Summary: "Ask a question and print the answer",
		Description: `Publish TEXT as a question, wait for someone (or the predefined
answers) to answer it, print the answer and withdraw the question.

Exits 2 when the question is deleted by someone else before it is
answered, and 3 when --timeout elapses.`,
		Usage: "dinstaller questions ask TEXT [--option OPTION]... [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("ask", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			flagSet.StringArrayVar(&options, "option", nil, "an allowed answer (repeatable; none means free text)")
			flagSet.StringVar(&defaultOption, "default", "", "default option")
			flagSet.StringVar(&class, "class", "", "question class matched by predefined answers")
			flagSet.DurationVar(&timeout, "timeout", 0, "give up after this long (0 waits forever)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return errors.New("usage: dinstaller questions ask TEXT [--option OPTION]...")
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			client := conn.client()

			var created questionEntry
			createCtx, cancel := callContext(ctx)
			err := client.Call(createCtx, "new", map[string]any{
				"text":           args[0],
				"options":        options,
				"default_option": defaultOption,
				"class":          class,
			}, &created)
			cancel()
			if err != nil {
				return err
			}
			logger.Debug("question published", "question_id", created.ID, "path", created.Path)

			answer, err := waitForAnswer(ctx, client, created.ID)
			if err != nil {
				var serviceErr *service.ServiceError
				switch {
				case errors.As(err, &serviceErr) && strings.Contains(serviceErr.Message, "removed before it was answered"):
					logger.Warn("question deleted before it was answered", "question_id", created.ID)
					return &cli.ExitError{Code: 2}
				case errors.Is(err, context.DeadlineExceeded) && timeout > 0:
					withdraw(client, created.ID, logger)
					logger.Warn("no answer in time", "question_id", created.ID, "timeout", timeout)
					return &cli.ExitError{Code: 3}
				default:
					withdraw(client, created.ID, logger)
					return err
				}
			}
			withdraw(client, created.ID, logger)

			_, err = fmt.Fprintln(streams.Out, answer)
			return err
		},
	}
}

// waitForAnswer repeats bounded waits until question id is answered.
func waitForAnswer(ctx context.Context, client *service.Client, id uint32) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		callCtx, cancel := context.WithTimeout(ctx, waitSlice+callTimeout)
		var result waitResult
		err := client.Call(callCtx, "wait", map[string]any{
			"ids":             []uint32{id},
			"timeout_seconds": int(waitSlice / time.Second),
		}, &result)
		cancel()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", err
		}
		if result.Answered {
			return result.Answers[id], nil
		}
	}
}

// withdraw deletes the question with a fresh context, so that it also
// runs after ctx was cancelled.
func withdraw(client *service.Client, id uint32, logger *slog.Logger) {
	ctx, cancel := callContext(context.Background())
	defer cancel()
	if err := client.Call(ctx, "delete", map[string]any{"id": id}, nil); err != nil {
		logger.Debug("withdrawing question failed", "question_id", id, "error", err)
	}
}
