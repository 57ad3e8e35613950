// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package questions

import "github.com/bureau-foundation/dinstaller/cmd/dinstaller/cli"

// Command returns the "questions" command group.
func Command(streams Streams) *cli.Command {
	return &cli.Command{
		Name:    "questions",
		Summary: "List, answer and ask installer questions",
		Description: `Work with the questions the installer is waiting on.

The commands talk to dinstaller-questions over its control socket. A
question answered here is answered on the bus as well, so any other
client showing it sees the answer arrive.`,
		Subcommands: []*cli.Command{
			listCommand(streams),
			answerCommand(streams),
			deleteCommand(streams),
			askCommand(streams),
			historyCommand(streams),
			watchCommand(streams),
			interactiveCommand(streams),
			statusCommand(streams),
		},
		Examples: []cli.Example{
			{
				Description: "Show what the installer is waiting for",
				Command:     "dinstaller questions list --pending",
			},
			{
				Description: "Unlock a disk, reading the passphrase from a file",
				Command:     "dinstaller questions answer 3 decrypt --password-stdin < passphrase",
			},
			{
				Description: "Ask from a script and use the answer",
				Command:     `choice=$(dinstaller questions ask "Format /dev/sdb?" --option yes --option no --default no)`,
			},
		},
	}
}
