// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package question

import (
	"context"
	"fmt"
	"time"
)

// Wait blocks until every given question is answered.
//
// It returns an error wrapping ErrQuestionRemoved if one of them is
// deleted unanswered, ctx.Err() if ctx ends first, and an
// *UnansweredTimeoutError if the registry's WaitTimeout elapses. In
// every error case the questions keep their current state. Waiting on a
// question that was never added returns a *NotFoundError.
func (r *Registry) Wait(ctx context.Context, questions ...*Question) error {
	r.mu.RLock()
	for _, q := range questions {
		if !q.added {
			r.mu.RUnlock()
			return &NotFoundError{ID: q.ID()}
		}
	}
	r.mu.RUnlock()

	var timeout <-chan time.Time
	if r.waitTimeout > 0 {
		timer := r.clock.NewTimer(r.waitTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for _, q := range questions {
		select {
		case <-q.answered:
			continue
		default:
		}

		select {
		case <-q.answered:
		case <-q.removed:
			// Answered and then deleted is still an answer.
			if !q.IsAnswered() {
				return fmt.Errorf("question %d: %w", q.ID(), ErrQuestionRemoved)
			}
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return &UnansweredTimeoutError{
				IDs:     unansweredIDs(questions),
				Timeout: r.waitTimeout,
			}
		}
	}
	return nil
}

func unansweredIDs(questions []*Question) []uint32 {
	var ids []uint32
	for _, q := range questions {
		if !q.IsAnswered() {
			ids = append(ids, q.ID())
		}
	}
	return ids
}

// Ask adds q, waits for its answer and deletes it again, returning the
// answer. The question is deleted on every path, including errors. The
// caller reads the passphrase (if any) from q and calls q.Release.
func (r *Registry) Ask(ctx context.Context, q *Question) (string, error) {
	if err := r.Add(q); err != nil {
		return "", err
	}
	defer r.Delete(q)

	if err := r.Wait(ctx, q); err != nil {
		return "", err
	}
	return q.Answer(), nil
}
