// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides helpers shared by the service's tests.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-deadline
// pattern so individual tests never block forever on a channel.
// [RequireBlocked] asserts the opposite: that nothing arrives within a
// short grace period, which is how tests observe that a Wait is still
// blocked. [SocketDir] returns a short /tmp directory for Unix sockets,
// whose paths are limited to 108 bytes.
package testutil
