// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package questions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/dinstaller/cmd/dinstaller/cli"
	"github.com/bureau-foundation/dinstaller/lib/clock"
	"github.com/bureau-foundation/dinstaller/lib/codec"
	"github.com/bureau-foundation/dinstaller/lib/questionui"
	"github.com/bureau-foundation/dinstaller/lib/service"
	"github.com/bureau-foundation/dinstaller/lib/testutil"
)

// fakeService records the requests it receives and answers each action
// with a canned handler.
type fakeService struct {
	socketPath string

	mu       sync.Mutex
	requests []map[string]any
}

func startFake(t *testing.T, handlers map[string]service.ActionFunc) *fakeService {
	t.Helper()
	fake := &fakeService{socketPath: filepath.Join(testutil.SocketDir(t), "questions.sock")}
	server := service.NewSocketServer(fake.socketPath, slog.New(slog.DiscardHandler))
	for action, handler := range handlers {
		server.Handle(action, func(ctx context.Context, raw []byte) (any, error) {
			var request map[string]any
			if err := codec.Unmarshal(raw, &request); err != nil {
				return nil, err
			}
			fake.mu.Lock()
			fake.requests = append(fake.requests, request)
			fake.mu.Unlock()
			return handler(ctx, raw)
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		testutil.RequireReceive(t, done, 5*time.Second, "server shutdown")
	})
	testutil.RequireClosed(t, server.Ready(), 5*time.Second, "server ready")
	return fake
}

func (f *fakeService) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var actions []string
	for _, request := range f.requests {
		actions = append(actions, request["action"].(string))
	}
	return actions
}

func (f *fakeService) last(action string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	for index := len(f.requests) - 1; index >= 0; index-- {
		if f.requests[index]["action"] == action {
			return f.requests[index]
		}
	}
	return nil
}

func reply(value any) service.ActionFunc {
	return func(ctx context.Context, raw []byte) (any, error) { return value, nil }
}

func run(t *testing.T, streams Streams, fake *fakeService, args ...string) error {
	t.Helper()
	if streams.Clock == nil {
		streams.Clock = clock.Real()
	}
	command := Command(streams)
	command.HelpOutput = &bytes.Buffer{}
	args = append(args, "--socket", fake.socketPath)
	return command.Execute(context.Background(), args, slog.New(slog.DiscardHandler))
}

var sampleEntries = []questionEntry{
	{ID: 1, Class: "generic", Kind: "generic", Text: "Continue?", Options: []string{"yes", "no"}, DefaultOption: "no"},
	{ID: 2, Class: "storage.luks_activation", Kind: "luks_activation", Text: "Unlock sda2?",
		Options: []string{"decrypt", "skip"}, DefaultOption: "skip", Device: "/dev/sda2", Label: "root", Attempt: 1},
}

func TestListTable(t *testing.T) {
	fake := startFake(t, map[string]service.ActionFunc{"list": reply(sampleEntries)})
	var out bytes.Buffer

	if err := run(t, Streams{Out: &out}, fake, "list", "--pending"); err != nil {
		t.Fatalf("list: %v", err)
	}
	text := out.String()
	for _, want := range []string{"ID", "Continue?", "yes/[no]", "decrypt/[skip]", "storage.luks_activation"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if pending, _ := fake.last("list")["pending"].(bool); !pending {
		t.Errorf("list request = %v, want pending=true", fake.last("list"))
	}
}

func TestListJSON(t *testing.T) {
	fake := startFake(t, map[string]service.ActionFunc{"list": reply([]questionEntry{})})
	var out bytes.Buffer

	if err := run(t, Streams{Out: &out}, fake, "list", "--json"); err != nil {
		t.Fatalf("list: %v", err)
	}
	var decoded []questionEntry
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if decoded == nil || len(decoded) != 0 {
		t.Errorf("decoded = %#v, want empty list", decoded)
	}
}

func TestAnswerWithOptionAndPassword(t *testing.T) {
	fake := startFake(t, map[string]service.ActionFunc{"answer": reply(nil)})
	streams := Streams{In: strings.NewReader("correct horse\n"), Out: &bytes.Buffer{}}

	if err := run(t, streams, fake, "answer", "2", "decrypt", "--password-stdin"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	request := fake.last("answer")
	if request["option"] != "decrypt" || request["password"] != "correct horse" {
		t.Errorf("answer request = %v", request)
	}
}

func TestAnswerPrompts(t *testing.T) {
	fake := startFake(t, map[string]service.ActionFunc{
		"list":   reply(sampleEntries),
		"answer": reply(nil),
	})

	if err := run(t, Streams{Out: &bytes.Buffer{}}, fake, "answer", "2"); err == nil ||
		!strings.Contains(err.Error(), "not a terminal") {
		t.Errorf("answer without terminal: error = %v", err)
	}

	var shown questionui.Prompt
	streams := Streams{
		Out: &bytes.Buffer{},
		Prompt: func(prompt questionui.Prompt) (questionui.Result, error) {
			shown = prompt
			return questionui.Result{Option: "decrypt", Password: "hunter2"}, nil
		},
	}
	if err := run(t, streams, fake, "answer", "2"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if shown.Device != "/dev/sda2" || shown.PasswordOption != "decrypt" || shown.DefaultOption != "skip" {
		t.Errorf("prompt = %+v", shown)
	}
	request := fake.last("answer")
	if request["option"] != "decrypt" || request["password"] != "hunter2" {
		t.Errorf("answer request = %v", request)
	}

	streams.Prompt = func(questionui.Prompt) (questionui.Result, error) {
		return questionui.Result{Cancelled: true}, nil
	}
	err := run(t, streams, fake, "answer", "1")
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Errorf("cancelled prompt: error = %v, want exit code 1", err)
	}
}

func TestAnswerRejectsBadID(t *testing.T) {
	fake := startFake(t, map[string]service.ActionFunc{"answer": reply(nil)})
	for _, id := range []string{"0", "-1", "abc", "99999999999"} {
		if err := run(t, Streams{Out: &bytes.Buffer{}}, fake, "answer", id, "yes"); err == nil {
			t.Errorf("answer %s: no error", id)
		}
	}
	if actions := fake.actions(); len(actions) != 0 {
		t.Errorf("requests sent for invalid IDs: %v", actions)
	}
}

func TestAskPrintsAnswer(t *testing.T) {
	var waits int
	var mu sync.Mutex
	fake := startFake(t, map[string]service.ActionFunc{
		"new": reply(questionEntry{ID: 7, Path: "/org/opensuse/DInstaller/Questions1/7"}),
		"wait": func(ctx context.Context, raw []byte) (any, error) {
			mu.Lock()
			defer mu.Unlock()
			waits++
			if waits == 1 {
				return waitResult{Answered: false}, nil
			}
			return waitResult{Answered: true, Answers: map[uint32]string{7: "yes"}}, nil
		},
		"delete": reply(nil),
	})
	var out bytes.Buffer

	err := run(t, Streams{Out: &out}, fake, "ask", "Format /dev/sdb?", "--option", "yes", "--option", "no", "--default", "no")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if out.String() != "yes\n" {
		t.Errorf("output = %q, want %q", out.String(), "yes\n")
	}
	want := []string{"new", "wait", "wait", "delete"}
	if got := fake.actions(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("actions = %v, want %v", got, want)
	}
	created := fake.last("new")
	if created["text"] != "Format /dev/sdb?" || created["default_option"] != "no" {
		t.Errorf("new request = %v", created)
	}
	if deleted := fake.last("delete"); deleted["id"] != uint64(7) {
		t.Errorf("delete request = %v", deleted)
	}
}

func TestAskQuestionRemoved(t *testing.T) {
	fake := startFake(t, map[string]service.ActionFunc{
		"new": reply(questionEntry{ID: 3}),
		"wait": func(ctx context.Context, raw []byte) (any, error) {
			return nil, errors.New("question 3: question removed before it was answered")
		},
		"delete": reply(nil),
	})

	err := run(t, Streams{Out: &bytes.Buffer{}}, fake, "ask", "Continue?")
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Errorf("error = %v, want exit code 2", err)
	}
}

func TestChanges(t *testing.T) {
	previous := map[uint32]questionEntry{
		1: {ID: 1, Text: "Continue?", Options: []string{"yes", "no"}},
		2: {ID: 2, Text: "Unlock?"},
		5: {ID: 5, Text: "Gone?"},
	}
	current := []questionEntry{
		{ID: 1, Text: "Continue?", Options: []string{"yes", "no"}, Answer: "yes"},
		{ID: 2, Text: "Unlock?"},
		{ID: 9, Text: "Reboot?", Options: []string{"now"}, DefaultOption: "now", Answer: "now"},
	}

	got := changes(previous, current)
	want := []string{
		"removed  5 Gone?",
		"answered 1 yes",
		"added    9 Reboot? ([now])",
		"answered 9 now",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("changes =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	if lines := changes(map[uint32]questionEntry{}, nil); len(lines) != 0 {
		t.Errorf("no questions produced %v", lines)
	}
}

func TestWatchPrintsChanges(t *testing.T) {
	var polls int
	var mu sync.Mutex
	fake := startFake(t, map[string]service.ActionFunc{
		"list": func(ctx context.Context, raw []byte) (any, error) {
			mu.Lock()
			defer mu.Unlock()
			polls++
			if polls == 1 {
				return sampleEntries[:1], nil
			}
			return []questionEntry{}, nil
		},
	})
	fakeClock := clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	out := &lockedBuffer{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, service.NewClient(fake.socketPath), fakeClock, time.Second, out)
	}()

	fakeClock.WaitForTimers(1)
	fakeClock.Advance(time.Second)
	fakeClock.WaitForTimers(1)
	cancel()

	if err := testutil.RequireReceive(t, done, 5*time.Second, "watch exit"); !errors.Is(err, context.Canceled) {
		t.Errorf("watch returned %v, want context.Canceled", err)
	}
	want := "added    1 Continue? (yes/[no])\nremoved  1 Continue?\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

type lockedBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.String()
}
