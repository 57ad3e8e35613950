// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for the question
// service.
//
// Code that stamps events or bounds a wait takes a Clock instead of
// calling time.Now or time.NewTimer directly. Production code passes
// Real(); tests pass Fake() and move time forward explicitly:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go func() { errs <- registry.Wait(ctx, q) }()
//	c.WaitForTimers(1)       // the wait armed its timeout
//	c.Advance(time.Minute)   // fire it deterministically
package clock
