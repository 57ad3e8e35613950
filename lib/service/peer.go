// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// PeerUID returns the UID of the process on the other end of conn, as
// reported by the kernel (SO_PEERCRED).
func PeerUID(conn *net.UnixConn) (uint32, error) {
	rawConn, err := conn.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("peer credentials: %w", err)
	}

	var credentials *unix.Ucred
	var credentialsErr error
	if err := rawConn.Control(func(fd uintptr) {
		credentials, credentialsErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil {
		return 0, fmt.Errorf("peer credentials: %w", err)
	}
	if credentialsErr != nil {
		return 0, fmt.Errorf("peer credentials: %w", credentialsErr)
	}
	return credentials.Uid, nil
}
