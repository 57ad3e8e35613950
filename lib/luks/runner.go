// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package luks

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner runs the external storage tools.
type Runner interface {
	// Output runs name and returns its standard output.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// RunWithInput runs name with stdin as its standard input.
	RunWithInput(ctx context.Context, stdin []byte, name string, args ...string) error
}

// ExecRunner runs commands on the host.
type ExecRunner struct{}

func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, commandError(name, err, &stderr)
	}
	return output, nil
}

func (ExecRunner) RunWithInput(ctx context.Context, stdin []byte, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return commandError(name, err, &stderr)
	}
	return nil
}

func commandError(name string, err error, stderr *bytes.Buffer) error {
	message := strings.TrimSpace(stderr.String())
	if message == "" {
		return fmt.Errorf("%s: %w", name, err)
	}
	return fmt.Errorf("%s: %w: %s", name, err, message)
}
