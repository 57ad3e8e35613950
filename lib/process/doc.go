// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds entrypoint helpers shared by the dinstaller
// binaries: reporting an error from run() before or after the logger
// exists, and the signal-bound root context every binary runs under.
package process
