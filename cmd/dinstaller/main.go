// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bureau-foundation/dinstaller/cmd/dinstaller/cli"
	"github.com/bureau-foundation/dinstaller/cmd/dinstaller/questions"
	"github.com/bureau-foundation/dinstaller/lib/process"
	"github.com/bureau-foundation/dinstaller/lib/version"
)

func main() {
	if err := run(); err != nil {
		// Commands that already reported the outcome exit quietly.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := process.SignalContext()
	defer stop()

	level := slog.LevelInfo
	if os.Getenv("DINSTALLER_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return root().Execute(ctx, os.Args[1:], cli.NewCommandLogger(level))
}

func root() *cli.Command {
	return &cli.Command{
		Name: "dinstaller",
		Description: `dinstaller: command-line client of the installer services.

Questions the installer asks (disk passphrases, confirmations) can be
listed, answered and asked from here. Set DINSTALLER_DEBUG for verbose
logs.`,
		Subcommands: []*cli.Command{
			questions.Command(questions.DefaultStreams()),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
					fmt.Printf("dinstaller %s\n", version.Full())
					return nil
				},
			},
		},
	}
}
