// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package question

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrAlreadyAdded is returned by Registry.Add for a question that
	// has been added before. A question is added at most once.
	ErrAlreadyAdded = errors.New("question already added")

	// ErrAlreadyAnswered is returned when a second answer (or a late
	// passphrase) arrives for an answered question.
	ErrAlreadyAnswered = errors.New("question already answered")

	// ErrQuestionRemoved is returned by Wait when a watched question
	// is deleted before anyone answered it.
	ErrQuestionRemoved = errors.New("question removed before it was answered")

	// ErrNoPassword is returned by SetPassword for questions that do
	// not take a passphrase.
	ErrNoPassword = errors.New("question does not take a password")
)

// NotFoundError reports a question ID that is not in the registry.
type NotFoundError struct {
	ID uint32
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("question %d not found", e.ID)
}

// InvalidOptionError rejects an option list or default at creation.
type InvalidOptionError struct {
	Option string
	Reason string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid option %q: %s", e.Option, e.Reason)
}

// InvalidAnswerError rejects an answer that is not one of the
// question's options.
type InvalidAnswerError struct {
	Answer  string
	Options []string
}

func (e *InvalidAnswerError) Error() string {
	if len(e.Options) == 0 {
		return fmt.Sprintf("invalid answer %q: answer must not be empty", e.Answer)
	}
	return fmt.Sprintf("invalid answer %q: expected one of %s", e.Answer, strings.Join(e.Options, ", "))
}

// UnansweredTimeoutError is returned by Wait when the registry's wait
// timeout elapses first. The questions stay registered and can still
// be answered.
type UnansweredTimeoutError struct {
	IDs     []uint32
	Timeout time.Duration
}

func (e *UnansweredTimeoutError) Error() string {
	return fmt.Sprintf("questions %v still unanswered after %s", e.IDs, e.Timeout)
}
