// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// dinstaller-questions is the question service of the installer. It
// owns org.opensuse.DInstaller.Questions on the bus, exports pending
// questions under /org/opensuse/DInstaller/Questions1, and serves the
// same registry on a local CBOR control socket for the dinstaller CLI.
//
// Usage:
//
//	dinstaller-questions [--config FILE] [--bus ADDRESS] [--socket PATH]
//
// Without --config the file named by DINSTALLER_CONFIG is used, and
// without either the built-in defaults. Predefined answers, the answer
// journal and LUKS probing are configured in the file.
package main
