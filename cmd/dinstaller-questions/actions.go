// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/dinstaller/lib/answers"
	"github.com/bureau-foundation/dinstaller/lib/clock"
	"github.com/bureau-foundation/dinstaller/lib/codec"
	"github.com/bureau-foundation/dinstaller/lib/journal"
	"github.com/bureau-foundation/dinstaller/lib/question"
	"github.com/bureau-foundation/dinstaller/lib/questionbus"
	"github.com/bureau-foundation/dinstaller/lib/service"
)

const (
	defaultWaitSeconds = 30
	// maxWaitSeconds keeps a wait below the client's default response
	// timeout. Callers that need longer re-issue the request.
	maxWaitSeconds = 40

	defaultHistoryLimit = 50
)

// QuestionService serves the registry on the control socket.
type QuestionService struct {
	registry  *question.Registry
	journal   *journal.Journal
	policy    *answers.Policy
	clock     clock.Clock
	startedAt time.Time
	logger    *slog.Logger
}

func (s *QuestionService) registerActions(server *service.SocketServer) {
	server.Handle("status", s.handleStatus)
	server.Handle("list", s.handleList)
	server.Handle("new", s.handleNew)
	server.Handle("answer", s.handleAnswer)
	server.Handle("delete", s.handleDelete)
	server.Handle("wait", s.handleWait)
	server.Handle("history", s.handleHistory)
	server.Handle("interactive", s.handleInteractive)
}

type statusResponse struct {
	UptimeSeconds int  `cbor:"uptime_seconds"`
	Pending       int  `cbor:"pending"`
	Interactive   bool `cbor:"interactive"`
	Journal       bool `cbor:"journal"`
}

func (s *QuestionService) handleStatus(ctx context.Context, raw []byte) (any, error) {
	return statusResponse{
		UptimeSeconds: int(s.clock.Now().Sub(s.startedAt).Seconds()),
		Pending:       s.registry.Len(),
		Interactive:   s.policy == nil || s.policy.Interactive(),
		Journal:       s.journal != nil,
	}, nil
}

// questionView is the wire form of a pending question. The passphrase
// of a LUKS question is never included.
type questionView struct {
	ID            uint32   `cbor:"id"`
	Path          string   `cbor:"path"`
	Class         string   `cbor:"class"`
	Kind          string   `cbor:"kind"`
	Text          string   `cbor:"text"`
	Options       []string `cbor:"options"`
	DefaultOption string   `cbor:"default_option,omitempty"`
	Answer        string   `cbor:"answer,omitempty"`
	Device        string   `cbor:"device,omitempty"`
	Label         string   `cbor:"label,omitempty"`
	Attempt       uint8    `cbor:"attempt,omitempty"`
}

func viewOf(q *question.Question) questionView {
	view := questionView{
		ID:            q.ID(),
		Path:          string(questionbus.PathFor(q.ID())),
		Class:         q.Class(),
		Kind:          q.Kind().String(),
		Text:          q.Text(),
		Options:       q.Options(),
		DefaultOption: q.DefaultOption(),
		Answer:        q.Answer(),
	}
	if luks, ok := q.Luks(); ok {
		view.Device = luks.Device
		view.Label = luks.Label
		view.Attempt = luks.Attempt
	}
	return view
}

type listRequest struct {
	// Pending restricts the list to unanswered questions.
	Pending bool `cbor:"pending"`
}

func (s *QuestionService) handleList(ctx context.Context, raw []byte) (any, error) {
	var request listRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	views := []questionView{}
	for _, q := range s.registry.Questions() {
		if request.Pending && q.IsAnswered() {
			continue
		}
		views = append(views, viewOf(q))
	}
	return views, nil
}

type newRequest struct {
	Class         string   `cbor:"class"`
	Text          string   `cbor:"text"`
	Options       []string `cbor:"options"`
	DefaultOption string   `cbor:"default_option"`
}

func (s *QuestionService) handleNew(ctx context.Context, raw []byte) (any, error) {
	var request newRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if request.Text == "" {
		return nil, errors.New("missing required field: text")
	}
	q, err := question.NewWithClass(request.Class, request.Text, request.Options, request.DefaultOption)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Add(q); err != nil {
		return nil, err
	}
	return viewOf(q), nil
}

type answerRequest struct {
	ID       uint32 `cbor:"id"`
	Option   string `cbor:"option"`
	Password string `cbor:"password"`
}

func (s *QuestionService) handleAnswer(ctx context.Context, raw []byte) (any, error) {
	var request answerRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if request.ID == 0 {
		return nil, errors.New("missing required field: id")
	}
	response := question.Response{Option: request.Option, Password: request.Password}
	if err := s.registry.Answer(request.ID, response); err != nil {
		return nil, err
	}
	return nil, nil
}

type deleteRequest struct {
	ID uint32 `cbor:"id"`
}

func (s *QuestionService) handleDelete(ctx context.Context, raw []byte) (any, error) {
	var request deleteRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	q, ok := s.registry.Lookup(request.ID)
	if !ok {
		return nil, &question.NotFoundError{ID: request.ID}
	}
	s.registry.Delete(q)
	return nil, nil
}

type waitRequest struct {
	IDs            []uint32 `cbor:"ids"`
	TimeoutSeconds int      `cbor:"timeout_seconds"`
}

type waitResponse struct {
	// Answered is false when the wait timed out. The questions stay
	// registered and the caller may wait again.
	Answered bool              `cbor:"answered"`
	Answers  map[uint32]string `cbor:"answers,omitempty"`
}

func (s *QuestionService) handleWait(ctx context.Context, raw []byte) (any, error) {
	var request waitRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if len(request.IDs) == 0 {
		return nil, errors.New("missing required field: ids")
	}
	questions := make([]*question.Question, 0, len(request.IDs))
	for _, id := range request.IDs {
		q, ok := s.registry.Lookup(id)
		if !ok {
			return nil, &question.NotFoundError{ID: id}
		}
		questions = append(questions, q)
	}

	seconds := request.TimeoutSeconds
	if seconds <= 0 {
		seconds = defaultWaitSeconds
	}
	seconds = min(seconds, maxWaitSeconds)
	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
	defer cancel()

	err := s.registry.Wait(waitCtx, questions...)
	var timeout *question.UnansweredTimeoutError
	switch {
	case err == nil:
	case errors.As(err, &timeout):
		return waitResponse{Answered: false}, nil
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return waitResponse{Answered: false}, nil
	default:
		return nil, err
	}

	given := make(map[uint32]string, len(questions))
	for _, q := range questions {
		given[q.ID()] = q.Answer()
	}
	return waitResponse{Answered: true, Answers: given}, nil
}

type historyRequest struct {
	Limit int `cbor:"limit"`
}

func (s *QuestionService) handleHistory(ctx context.Context, raw []byte) (any, error) {
	if s.journal == nil {
		return nil, errors.New("journal is disabled")
	}
	var request historyRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if request.Limit <= 0 {
		request.Limit = defaultHistoryLimit
	}
	if err := s.journal.Sync(ctx); err != nil {
		return nil, err
	}
	events, err := s.journal.Recent(ctx, request.Limit)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []journal.Event{}
	}
	return events, nil
}

type interactiveRequest struct {
	// Set, when present, changes the mode. Absent only reads it.
	Set *bool `cbor:"set"`
}

type interactiveResponse struct {
	Interactive bool `cbor:"interactive"`
}

func (s *QuestionService) handleInteractive(ctx context.Context, raw []byte) (any, error) {
	if s.policy == nil {
		return nil, errors.New("no answer policy configured")
	}
	var request interactiveRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if request.Set != nil {
		s.policy.SetInteractive(*request.Set)
		s.logger.Info("interactive mode changed", "interactive", *request.Set)
	}
	return interactiveResponse{Interactive: s.policy.Interactive()}, nil
}
