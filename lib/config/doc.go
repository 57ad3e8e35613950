// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the YAML configuration of the question service.
//
// The file is named by the DINSTALLER_CONFIG environment variable (via
// [Load]) or a --config flag (via [LoadFile]). There is no discovery;
// what the file says is what runs.
//
// The file may carry development and production sections that override
// base values when [Config].Environment matches. Production defaults
// are stricter: the control socket accepts root only and the log level
// is info.
//
// ${VAR} and ${VAR:-default} patterns are expanded in path fields after
// loading, with ${DINSTALLER_STATE} naming the state directory.
//
// This package depends on no other dinstaller packages.
package config
