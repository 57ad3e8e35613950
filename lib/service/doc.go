// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service implements the local control socket of the question
// service: a CBOR request/response protocol over a Unix socket.
//
// Each connection carries exactly one exchange. The client writes one
// CBOR map containing an "action" field plus action-specific fields;
// the server answers with {ok, error, data} and closes the connection.
// CBOR values are self-delimiting, so no framing is needed.
//
// The socket is the machine-local path for tools that do not speak
// D-Bus (the dinstaller CLI, scripts in the installation image). Access
// is limited by peer credentials: only the UIDs listed in
// [SocketServer.AllowUIDs] may connect, which by default are root and
// the daemon's own user.
package service
