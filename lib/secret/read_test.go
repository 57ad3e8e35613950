// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"strings"
	"testing"
)

func TestReadLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "newline", input: "hunter2\n", want: "hunter2"},
		{name: "crlf", input: "hunter2\r\n", want: "hunter2"},
		{name: "no terminator", input: "hunter2", want: "hunter2"},
		{name: "keeps spaces", input: " spaced out \n", want: " spaced out "},
		{name: "only first line", input: "first\nsecond\n", want: "first"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buffer, err := ReadLine(strings.NewReader(test.input))
			if err != nil {
				t.Fatalf("ReadLine: %v", err)
			}
			defer buffer.Close()
			if got := buffer.String(); got != test.want {
				t.Errorf("ReadLine = %q, want %q", got, test.want)
			}
		})
	}
}

func TestReadLineEmpty(t *testing.T) {
	for _, input := range []string{"", "\n", "\r\n"} {
		if _, err := ReadLine(strings.NewReader(input)); err == nil {
			t.Errorf("ReadLine(%q) succeeded, want error", input)
		}
	}
}
