// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package question models the questions an installation phase asks a
// person, and the registry that tracks which of them are still pending.
//
// A [Question] is created by a phase driver, added to a [Registry]
// (which assigns its ID and notifies observers such as the D-Bus
// exporter), answered exactly once through [Registry.Answer], and
// finally deleted. Drivers block on [Registry.Wait] until their
// questions are answered:
//
//	q, _ := question.New("Continue?", []string{"yes", "no"}, "yes")
//	answer, err := registry.Ask(ctx, q) // Add, Wait, Delete
//
// # Variants
//
// Questions are a tagged variant. [KindGeneric] questions carry a
// prompt, an ordered option list and an optional default. Questions of
// [KindLuksActivation] additionally carry the encrypted device, its
// label, the attempt counter and a passphrase. The passphrase is held in
// a [secret.Buffer] and is released with [Question.Release].
//
// # Concurrency
//
// The registry is safe for concurrent use. Observers are invoked while
// the registry's write lock is held, so a membership change and the
// matching export or unexport are a single step as far as any
// enumeration is concerned. Observers must not call back into the
// registry.
//
// Waiting does not poll. Each question owns two channels, closed when
// it is answered and when it leaves the registry; Wait selects on them
// together with the caller's context and an optional timeout.
package question
