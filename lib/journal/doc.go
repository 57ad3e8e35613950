// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package journal keeps a SQLite history of question lifecycle events:
// when each question was added, how it was answered, and when it was
// removed. Support engineers read it after a failed unattended
// installation to see which prompts appeared and what answered them.
//
// [Journal] implements question.Observer. Registry observers run with
// the registry lock held, so events are queued and written by a
// background goroutine; a full queue drops events (with a warning)
// rather than stalling the registry. [Journal.Sync] waits until every
// queued event is on disk.
//
// Passphrases are never recorded. Only the chosen option is stored.
package journal
