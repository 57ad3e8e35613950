// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package question

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bureau-foundation/dinstaller/lib/clock"
)

// Response is an answer as delivered by a person or a policy.
type Response struct {
	// Option is the chosen option (or the free-form text when the
	// question has no options).
	Option string

	// Password is the passphrase for LUKS questions. Ignored for
	// generic questions.
	Password string
}

// Observer receives registry membership and answer events. Methods are
// called with the registry's write lock held and must not call back
// into the registry.
type Observer interface {
	QuestionAdded(q *Question)
	QuestionRemoved(q *Question)
	QuestionAnswered(q *Question)
}

// Policy may answer a question as soon as it is added, without waiting
// for a person. Resolve is called with the registry lock held.
type Policy interface {
	Resolve(q *Question) (response Response, ok bool)
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// Clock bounds waits when WaitTimeout is set. Defaults to
	// clock.Real().
	Clock clock.Clock

	// Logger receives lifecycle messages. Defaults to a discarding
	// logger.
	Logger *slog.Logger

	// Policy, when set, is consulted for every added question.
	Policy Policy

	// WaitTimeout bounds every Wait. Zero waits indefinitely.
	WaitTimeout time.Duration
}

// Registry is the authoritative set of pending questions.
type Registry struct {
	clock       clock.Clock
	logger      *slog.Logger
	policy      Policy
	waitTimeout time.Duration

	mu        sync.RWMutex
	lastID    uint32
	order     []*Question
	byID      map[uint32]*Question
	observers []Observer
}

// NewRegistry returns an empty registry.
func NewRegistry(config RegistryConfig) *Registry {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		clock:       config.Clock,
		logger:      config.Logger,
		policy:      config.Policy,
		waitTimeout: config.WaitTimeout,
		byID:        make(map[uint32]*Question),
	}
}

// Subscribe registers an observer. Observers added after questions
// exist are not replayed the earlier events.
func (r *Registry) Subscribe(observer Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, observer)
}

// Add inserts q, assigning it the next ID, and notifies observers. If
// a policy answers the question it is answered before Add returns.
func (r *Registry) Add(q *Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if q.added {
		return ErrAlreadyAdded
	}
	q.added = true
	if q.ID() == 0 {
		r.lastID++
		q.id.Store(r.lastID)
	}

	r.order = append(r.order, q)
	r.byID[q.ID()] = q
	for _, observer := range r.observers {
		observer.QuestionAdded(q)
	}
	r.logger.Info("question added",
		"question_id", q.ID(),
		"class", q.Class(),
		"kind", q.Kind().String(),
	)

	if r.policy == nil {
		return nil
	}
	response, ok := r.policy.Resolve(q)
	if !ok {
		return nil
	}
	if err := r.answerLocked(q, response); err != nil {
		r.logger.Warn("policy answer rejected",
			"question_id", q.ID(),
			"error", err,
		)
		return nil
	}
	r.logger.Info("question answered by policy", "question_id", q.ID())
	return nil
}

// Delete removes q and notifies observers. Deleting a question that is
// not in the registry does nothing.
func (r *Registry) Delete(q *Question) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.byID[q.ID()]; !ok || current != q {
		return
	}
	delete(r.byID, q.ID())
	if index := slices.Index(r.order, q); index >= 0 {
		r.order = slices.Delete(r.order, index, index+1)
	}
	close(q.removed)

	for _, observer := range r.observers {
		observer.QuestionRemoved(q)
	}
	r.logger.Info("question removed",
		"question_id", q.ID(),
		"answered", q.IsAnswered(),
	)
}

// Answer answers the question with the given ID.
func (r *Registry) Answer(id uint32, response Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.byID[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	return r.answerLocked(q, response)
}

func (r *Registry) answerLocked(q *Question, response Response) error {
	if err := q.setAnswer(response); err != nil {
		return err
	}
	for _, observer := range r.observers {
		observer.QuestionAnswered(q)
	}
	r.logger.Info("question answered",
		"question_id", q.ID(),
		"answer", response.Option,
	)
	return nil
}

// SetPassword stores the passphrase of a LUKS question before it is
// answered. D-Bus clients write the Password property first and the
// Answer property second.
func (r *Registry) SetPassword(id uint32, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.byID[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	return q.setPassword(password)
}

// Questions returns the live questions in insertion order.
func (r *Registry) Questions() []*Question {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Lookup returns the live question with the given ID.
func (r *Registry) Lookup(id uint32) (*Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.byID[id]
	return q, ok
}

// Len returns the number of live questions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
