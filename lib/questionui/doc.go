// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package questionui is the terminal prompt for answering one question.
//
// The [Model] is a bubbletea model: it lists the options (the default
// preselected), and for disk-unlock questions asks for the passphrase
// after "decrypt" is chosen. Questions without options take free text.
// [Run] drives the model on a terminal and returns the [Result].
package questionui
