// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package answers answers questions without a person: from a file of
// predefined answers, and with default options when the installer runs
// non-interactively.
//
// An answers file lists rules:
//
//	answers:
//	  - class: storage.luks_activation
//	    device: /dev/sda2
//	    answer: decrypt
//	    password: "correct horse"
//	  - class: generic
//	    text: "Continue?"
//	    answer: "yes"
//
// Files ending in .json or .jsonc are read as JSON with comments; any
// other name is read as YAML. A trailing .age means the file is
// encrypted to an age X25519 recipient and is decrypted with the
// configured identity file. Passwords are moved into [secret.Buffer]
// memory as soon as the file is parsed.
//
// [Policy] implements question.Policy and is consulted by the registry
// when a question is added.
package answers
