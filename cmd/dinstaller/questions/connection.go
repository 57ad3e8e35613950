// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package questions

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/dinstaller/lib/clock"
	"github.com/bureau-foundation/dinstaller/lib/questionui"
	"github.com/bureau-foundation/dinstaller/lib/service"
)

const (
	// SocketEnvironmentVariable overrides the default socket path.
	SocketEnvironmentVariable = "DINSTALLER_QUESTIONS_SOCKET"

	DefaultSocketPath = "/run/dinstaller/questions.sock"

	callTimeout = 30 * time.Second
)

// Streams are the terminal and time sources of the commands.
type Streams struct {
	In  io.Reader
	Out io.Writer

	// Prompt asks interactively. nil when stdin is not a terminal, in
	// which case answers must be given on the command line.
	Prompt func(questionui.Prompt) (questionui.Result, error)

	Clock clock.Clock
}

// DefaultStreams uses the process's stdin and stdout.
func DefaultStreams() Streams {
	streams := Streams{In: os.Stdin, Out: os.Stdout, Clock: clock.Real()}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		streams.Prompt = func(prompt questionui.Prompt) (questionui.Result, error) {
			return questionui.Run(prompt, os.Stdin, os.Stderr)
		}
	}
	return streams
}

// connection holds the --socket flag shared by every command.
type connection struct {
	socketPath string
}

func (c *connection) addFlags(flagSet *pflag.FlagSet) {
	socketPath := os.Getenv(SocketEnvironmentVariable)
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	flagSet.StringVar(&c.socketPath, "socket", socketPath, "control socket of dinstaller-questions (env: "+SocketEnvironmentVariable+")")
}

func (c *connection) client() *service.Client {
	return service.NewClient(c.socketPath)
}

func callContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, callTimeout)
}
