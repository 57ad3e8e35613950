// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// ReadLine reads the first line of r into a Buffer, dropping the line
// terminator. Passphrases may legitimately contain leading or trailing
// spaces, so only "\n" and "\r\n" are stripped.
func ReadLine(r io.Reader) (*Buffer, error) {
	reader := bufio.NewReader(r)
	line, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		clear(line)
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}

	trimmed := bytes.TrimSuffix(bytes.TrimSuffix(line, []byte("\n")), []byte("\r"))
	if len(trimmed) == 0 {
		clear(line)
		return nil, fmt.Errorf("passphrase is empty")
	}

	buffer, err := FromBytes(trimmed)
	clear(line)
	return buffer, err
}
