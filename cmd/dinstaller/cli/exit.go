// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError ends the program with Code without printing anything more.
// Commands return it after writing their own output, e.g. "ask"
// exiting 2 when the question was deleted unanswered.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode is checked by main.
func (e *ExitError) ExitCode() int {
	return e.Code
}
