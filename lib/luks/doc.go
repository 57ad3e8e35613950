// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package luks is the storage probing phase that unlocks encrypted
// disks. For every LUKS device that is not yet open it asks a
// disk-unlock question and, when the answer is "decrypt", runs
// cryptsetup with the given passphrase. A wrong passphrase asks again
// with the attempt counter increased, up to MaxAttempts.
//
// Block devices are listed with lsblk; both tools are invoked through a
// [Runner] so tests can script them.
package luks
