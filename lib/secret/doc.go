// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds passphrases outside the Go heap.
//
// A Buffer is an anonymous mmap region locked into RAM (mlock) and
// excluded from core dumps (MADV_DONTDUMP). The garbage collector never
// sees it, so a LUKS passphrase entered for a disk-unlock question is
// not copied around by the runtime and is zeroed when the question is
// released.
package secret
