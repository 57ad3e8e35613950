// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package questions implements "dinstaller questions": listing,
// answering, asking and watching questions through the control socket
// of dinstaller-questions.
package questions
