// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// dinstaller is the command-line client of the installer services.
//
//	dinstaller questions list --pending
//	dinstaller questions answer 3 decrypt --password-stdin
//	dinstaller questions ask "Format /dev/sdb?" --option yes --option no
//
// Run "dinstaller --help" for the full command tree.
package main
