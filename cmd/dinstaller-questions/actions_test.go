// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/dinstaller/lib/answers"
	"github.com/bureau-foundation/dinstaller/lib/clock"
	"github.com/bureau-foundation/dinstaller/lib/journal"
	"github.com/bureau-foundation/dinstaller/lib/question"
	"github.com/bureau-foundation/dinstaller/lib/service"
	"github.com/bureau-foundation/dinstaller/lib/testutil"
)

type testService struct {
	registry *question.Registry
	policy   *answers.Policy
	client   *service.Client
}

func startService(t *testing.T, withJournal bool) *testService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	policy := answers.NewPolicy(true, nil)
	t.Cleanup(func() { policy.Close() })
	registry := question.NewRegistry(question.RegistryConfig{Logger: logger, Policy: policy})

	questions := &QuestionService{
		registry:  registry,
		policy:    policy,
		clock:     clock.Real(),
		startedAt: time.Now(),
		logger:    logger,
	}
	if withJournal {
		history, err := journal.Open(journal.Config{Path: filepath.Join(t.TempDir(), "journal.db"), Logger: logger})
		if err != nil {
			t.Fatalf("journal.Open: %v", err)
		}
		t.Cleanup(func() { history.Close() })
		registry.Subscribe(history)
		questions.journal = history
	}

	socketPath := filepath.Join(testutil.SocketDir(t), "questions.sock")
	server := service.NewSocketServer(socketPath, logger)
	questions.registerActions(server)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := testutil.RequireReceive(t, done, 5*time.Second, "server shutdown"); err != nil {
			t.Errorf("Serve: %v", err)
		}
	})
	testutil.RequireClosed(t, server.Ready(), 5*time.Second, "server ready")

	return &testService{registry: registry, policy: policy, client: service.NewClient(socketPath)}
}

func (s *testService) call(t *testing.T, action string, fields map[string]any, result any) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Call(ctx, action, fields, result)
}

func TestNewListAnswerDelete(t *testing.T) {
	svc := startService(t, false)

	var created questionView
	err := svc.call(t, "new", map[string]any{
		"text":           "Continue?",
		"options":        []string{"yes", "no"},
		"default_option": "yes",
	}, &created)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if created.ID != 1 || created.Path != "/org/opensuse/DInstaller/Questions1/1" || created.Kind != "generic" {
		t.Errorf("created = %+v", created)
	}

	luks := question.NewLuksActivation("/dev/sda2", "Unlock?", "sda2 (1 GiB)", 2)
	if err := svc.registry.Add(luks); err != nil {
		t.Fatalf("Add: %v", err)
	}

	var listed []questionView
	if err := svc.call(t, "list", nil, &listed); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("list returned %d questions, want 2", len(listed))
	}
	if listed[1].Device != "/dev/sda2" || listed[1].Attempt != 2 || listed[1].Kind != "luks_activation" {
		t.Errorf("luks view = %+v", listed[1])
	}

	if err := svc.call(t, "answer", map[string]any{"id": created.ID, "option": "no"}, nil); err != nil {
		t.Fatalf("answer: %v", err)
	}
	err = svc.call(t, "answer", map[string]any{"id": luks.ID(), "option": "decrypt", "password": "secret"}, nil)
	if err != nil {
		t.Fatalf("answer luks: %v", err)
	}
	if luks.Answer() != question.OptionDecrypt || luks.Password() != "secret" {
		t.Errorf("luks answer = %q, password = %q", luks.Answer(), luks.Password())
	}

	var pending []questionView
	if err := svc.call(t, "list", map[string]any{"pending": true}, &pending); err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending list = %+v, want empty", pending)
	}

	if err := svc.call(t, "delete", map[string]any{"id": created.ID}, nil); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := svc.registry.Lookup(created.ID); ok {
		t.Error("question still registered after delete")
	}
	if _, ok := svc.registry.Lookup(luks.ID()); !ok {
		t.Error("delete removed the wrong question")
	}
}

func TestActionErrors(t *testing.T) {
	svc := startService(t, false)
	q, _ := question.New("Continue?", []string{"yes", "no"}, "")
	svc.registry.Add(q)

	tests := []struct {
		name    string
		action  string
		fields  map[string]any
		wantErr string
	}{
		{"unknown question", "answer", map[string]any{"id": 42, "option": "yes"}, "question 42 not found"},
		{"missing id", "answer", map[string]any{"option": "yes"}, "missing required field: id"},
		{"invalid answer", "answer", map[string]any{"id": q.ID(), "option": "maybe"}, `invalid answer "maybe"`},
		{"reserved option", "new", map[string]any{"text": "x", "options": []string{"none"}}, "reserved"},
		{"bad default", "new", map[string]any{"text": "x", "options": []string{"a"}, "default_option": "b"}, "default is not one of the options"},
		{"missing text", "new", map[string]any{"options": []string{"a"}}, "missing required field: text"},
		{"delete unknown", "delete", map[string]any{"id": 7}, "question 7 not found"},
		{"wait without ids", "wait", nil, "missing required field: ids"},
		{"history disabled", "history", nil, "journal is disabled"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := svc.call(t, test.action, test.fields, nil)
			var serviceErr *service.ServiceError
			if !errors.As(err, &serviceErr) {
				t.Fatalf("error = %v, want *service.ServiceError", err)
			}
			if !strings.Contains(serviceErr.Message, test.wantErr) {
				t.Errorf("message = %q, want it to contain %q", serviceErr.Message, test.wantErr)
			}
		})
	}

	if err := svc.call(t, "answer", map[string]any{"id": q.ID(), "option": "yes"}, nil); err != nil {
		t.Fatalf("answer: %v", err)
	}
	err := svc.call(t, "answer", map[string]any{"id": q.ID(), "option": "no"}, nil)
	if err == nil || !strings.Contains(err.Error(), "already answered") {
		t.Errorf("second answer error = %v", err)
	}
	if q.Answer() != "yes" {
		t.Errorf("answer changed to %q", q.Answer())
	}
}

func TestWaitReturnsAnswers(t *testing.T) {
	svc := startService(t, false)
	first, _ := question.New("First?", []string{"a", "b"}, "")
	second, _ := question.New("Second?", nil, "")
	svc.registry.Add(first)
	svc.registry.Add(second)

	type waitResult struct {
		response waitResponse
		err      error
	}
	results := make(chan waitResult, 1)
	go func() {
		var response waitResponse
		err := svc.client.Call(context.Background(), "wait", map[string]any{
			"ids":             []uint32{first.ID(), second.ID()},
			"timeout_seconds": 10,
		}, &response)
		results <- waitResult{response, err}
	}()

	testutil.RequireBlocked(t, results, 50*time.Millisecond, "wait returned before any answer")
	svc.registry.Answer(first.ID(), question.Response{Option: "b"})
	testutil.RequireBlocked(t, results, 50*time.Millisecond, "wait returned with one answer missing")
	svc.registry.Answer(second.ID(), question.Response{Option: "free text"})

	result := testutil.RequireReceive(t, results, 5*time.Second, "wait result")
	if result.err != nil {
		t.Fatalf("wait: %v", result.err)
	}
	if !result.response.Answered {
		t.Fatal("answered = false")
	}
	if result.response.Answers[first.ID()] != "b" || result.response.Answers[second.ID()] != "free text" {
		t.Errorf("answers = %v", result.response.Answers)
	}
}

func TestWaitTimesOutWithoutRemoving(t *testing.T) {
	svc := startService(t, false)
	q, _ := question.New("Continue?", []string{"yes"}, "")
	svc.registry.Add(q)

	var response waitResponse
	err := svc.call(t, "wait", map[string]any{"ids": []uint32{q.ID()}, "timeout_seconds": 1}, &response)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if response.Answered {
		t.Errorf("response = %+v, want unanswered", response)
	}
	if _, ok := svc.registry.Lookup(q.ID()); !ok {
		t.Error("question removed by a timed-out wait")
	}
}

func TestWaitOnDeletedQuestion(t *testing.T) {
	svc := startService(t, false)
	q, _ := question.New("Continue?", []string{"yes"}, "")
	svc.registry.Add(q)

	results := make(chan error, 1)
	go func() {
		results <- svc.client.Call(context.Background(), "wait", map[string]any{"ids": []uint32{q.ID()}}, nil)
	}()
	testutil.RequireBlocked(t, results, 50*time.Millisecond, "wait returned early")
	svc.registry.Delete(q)

	err := testutil.RequireReceive(t, results, 5*time.Second, "wait result")
	if err == nil || !strings.Contains(err.Error(), question.ErrQuestionRemoved.Error()) {
		t.Errorf("wait error = %v, want removal", err)
	}
}

func TestHistory(t *testing.T) {
	svc := startService(t, true)

	var created questionView
	if err := svc.call(t, "new", map[string]any{"text": "Continue?", "options": []string{"yes", "no"}}, &created); err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := svc.call(t, "answer", map[string]any{"id": created.ID, "option": "yes"}, nil); err != nil {
		t.Fatalf("answer: %v", err)
	}

	var events []journal.Event
	if err := svc.call(t, "history", map[string]any{"limit": 10}, &events); err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != journal.EventAnswered || events[0].Answer != "yes" || events[1].Type != journal.EventAdded {
		t.Errorf("events = %+v", events)
	}

	var latest []journal.Event
	if err := svc.call(t, "history", map[string]any{"limit": 1}, &latest); err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(latest) != 1 {
		t.Errorf("limit 1 returned %d events", len(latest))
	}
}

func TestStatusAndInteractive(t *testing.T) {
	svc := startService(t, true)
	q, _ := question.New("Continue?", nil, "")
	svc.registry.Add(q)

	var status statusResponse
	if err := svc.call(t, "status", nil, &status); err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Pending != 1 || !status.Interactive || !status.Journal {
		t.Errorf("status = %+v", status)
	}

	var mode interactiveResponse
	if err := svc.call(t, "interactive", map[string]any{"set": false}, &mode); err != nil {
		t.Fatalf("interactive: %v", err)
	}
	if mode.Interactive || svc.policy.Interactive() {
		t.Errorf("interactive = %v / %v, want false", mode.Interactive, svc.policy.Interactive())
	}
	if err := svc.call(t, "interactive", nil, &mode); err != nil {
		t.Fatalf("interactive: %v", err)
	}
	if mode.Interactive {
		t.Error("reading the mode changed it")
	}
}
