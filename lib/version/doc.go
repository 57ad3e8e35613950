// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the dinstaller
// binaries. The variables are set at link time:
//
//	go build -ldflags "-X github.com/bureau-foundation/dinstaller/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version
