// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package question

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/bureau-foundation/dinstaller/lib/clock"
	"github.com/bureau-foundation/dinstaller/lib/testutil"
)

const (
	testTimeout = 5 * time.Second
	blockGrace  = 50 * time.Millisecond
)

func startWait(ctx context.Context, registry *Registry, questions ...*Question) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- registry.Wait(ctx, questions...)
	}()
	return result
}

func TestWaitBlocksUntilAllAnswered(t *testing.T) {
	registry, _ := newTestRegistry(t)
	first := mustNew(t, "first", "yes", "no")
	second := mustNew(t, "second", "yes", "no")
	registry.Add(first)
	registry.Add(second)

	result := startWait(context.Background(), registry, first, second)
	testutil.RequireBlocked(t, result, blockGrace, "wait returned with nothing answered")

	if err := registry.Answer(first.ID(), Response{Option: "yes"}); err != nil {
		t.Fatalf("Answer(first): %v", err)
	}
	testutil.RequireBlocked(t, result, blockGrace, "wait returned with only the first answered")

	if err := registry.Answer(second.ID(), Response{Option: "no"}); err != nil {
		t.Fatalf("Answer(second): %v", err)
	}
	if err := testutil.RequireReceive(t, result, testTimeout, "wait result"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if first.Answer() != "yes" || second.Answer() != "no" {
		t.Errorf("answers = %q, %q", first.Answer(), second.Answer())
	}
}

func TestWaitReturnsImmediatelyWhenAnswered(t *testing.T) {
	registry, _ := newTestRegistry(t)
	q := mustNew(t, "already", "ok")
	registry.Add(q)
	registry.Answer(q.ID(), Response{Option: "ok"})

	if err := registry.Wait(context.Background(), q); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestWaitUnblocksOnDelete(t *testing.T) {
	registry, _ := newTestRegistry(t)
	q := mustNew(t, "abandoned", "yes", "no")
	registry.Add(q)

	result := startWait(context.Background(), registry, q)
	testutil.RequireBlocked(t, result, blockGrace, "wait returned early")
	registry.Delete(q)

	err := testutil.RequireReceive(t, result, testTimeout, "wait result")
	if !errors.Is(err, ErrQuestionRemoved) {
		t.Fatalf("Wait = %v, want ErrQuestionRemoved", err)
	}
	if q.IsAnswered() {
		t.Error("deleted question reports an answer")
	}
}

func TestWaitAnsweredThenDeletedSucceeds(t *testing.T) {
	registry, _ := newTestRegistry(t)
	q := mustNew(t, "answered then gone", "yes")
	registry.Add(q)
	registry.Answer(q.ID(), Response{Option: "yes"})
	registry.Delete(q)

	if err := registry.Wait(context.Background(), q); err != nil {
		t.Fatalf("Wait = %v, want nil", err)
	}
}

func TestWaitHonoursContext(t *testing.T) {
	registry, _ := newTestRegistry(t)
	q := mustNew(t, "cancelled", "yes")
	registry.Add(q)

	ctx, cancel := context.WithCancel(context.Background())
	result := startWait(ctx, registry, q)
	testutil.RequireBlocked(t, result, blockGrace, "wait returned early")
	cancel()

	if err := testutil.RequireReceive(t, result, testTimeout, "wait result"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait = %v, want context.Canceled", err)
	}
	if _, ok := registry.Lookup(q.ID()); !ok {
		t.Error("cancelled wait removed the question")
	}
}

func TestWaitTimeout(t *testing.T) {
	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	registry := NewRegistry(RegistryConfig{Clock: fake, WaitTimeout: time.Minute})
	first := mustNew(t, "first", "yes")
	second := mustNew(t, "second", "yes")
	registry.Add(first)
	registry.Add(second)
	registry.Answer(first.ID(), Response{Option: "yes"})

	result := startWait(context.Background(), registry, first, second)
	fake.WaitForTimers(1)
	fake.Advance(59 * time.Second)
	testutil.RequireBlocked(t, result, blockGrace, "wait returned before the timeout")
	fake.Advance(time.Second)

	err := testutil.RequireReceive(t, result, testTimeout, "wait result")
	var timeoutErr *UnansweredTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("Wait = %v, want *UnansweredTimeoutError", err)
	}
	if !slices.Equal(timeoutErr.IDs, []uint32{second.ID()}) {
		t.Errorf("IDs = %v, want only the unanswered question", timeoutErr.IDs)
	}
	if registry.Len() != 2 {
		t.Errorf("timeout changed registry membership")
	}
}

func TestWaitStopsTimerWhenAnswered(t *testing.T) {
	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	registry := NewRegistry(RegistryConfig{Clock: fake, WaitTimeout: time.Minute})
	q := mustNew(t, "quick", "yes")
	registry.Add(q)

	result := startWait(context.Background(), registry, q)
	fake.WaitForTimers(1)
	registry.Answer(q.ID(), Response{Option: "yes"})
	if err := testutil.RequireReceive(t, result, testTimeout, "wait result"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if fake.Pending() != 0 {
		t.Errorf("Pending() = %d, timer leaked", fake.Pending())
	}
}

func TestWaitOnUnaddedQuestion(t *testing.T) {
	registry, _ := newTestRegistry(t)
	var notFound *NotFoundError
	if err := registry.Wait(context.Background(), mustNew(t, "stray")); !errors.As(err, &notFound) {
		t.Fatalf("Wait = %v, want *NotFoundError", err)
	}
}

func TestAskDeletesOnEveryPath(t *testing.T) {
	registry, events := newTestRegistry(t)
	q := mustNew(t, "Continue?", "yes", "no")

	answers := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		answer, err := registry.Ask(context.Background(), q)
		answers <- answer
		errs <- err
	}()

	for registry.Len() == 0 {
		time.Sleep(time.Millisecond)
	}
	registry.Answer(q.ID(), Response{Option: "no"})

	if answer := testutil.RequireReceive(t, answers, testTimeout, "ask answer"); answer != "no" {
		t.Errorf("Ask = %q, want no", answer)
	}
	if err := testutil.RequireReceive(t, errs, testTimeout, "ask error"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if registry.Len() != 0 {
		t.Fatal("Ask left the question registered")
	}
	events.mu.Lock()
	last := events.events[len(events.events)-1]
	events.mu.Unlock()
	if last != "removed:1" {
		t.Errorf("last event = %q, want removed:1", last)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := registry.Ask(ctx, mustNew(t, "cancelled", "yes")); !errors.Is(err, context.Canceled) {
		t.Fatalf("Ask(cancelled) = %v, want context.Canceled", err)
	}
	if registry.Len() != 0 {
		t.Fatal("cancelled Ask left the question registered")
	}
}
