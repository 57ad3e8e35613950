// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/dinstaller/lib/clock"
	"github.com/bureau-foundation/dinstaller/lib/question"
)

// Event types.
const (
	EventAdded    = "added"
	EventAnswered = "answered"
	EventRemoved  = "removed"
)

const defaultQueueSize = 256

// ErrClosed is returned by Sync and Recent after Close.
var ErrClosed = errors.New("journal closed")

// Event is one recorded lifecycle step.
type Event struct {
	Seq        int64     `cbor:"seq"`
	QuestionID uint32    `cbor:"question_id"`
	Class      string    `cbor:"class"`
	Text       string    `cbor:"text"`
	Type       string    `cbor:"event"`
	Answer     string    `cbor:"answer,omitempty"`
	At         time.Time `cbor:"at"`
}

// Config configures a Journal.
type Config struct {
	// Path is the SQLite database file. Required.
	Path string

	// Clock stamps events. Defaults to clock.Real().
	Clock clock.Clock

	Logger *slog.Logger

	// QueueSize bounds the number of events waiting to be written.
	QueueSize int
}

type queued struct {
	event   Event
	barrier chan struct{}
}

// Journal records question events. Subscribe it to a registry.
type Journal struct {
	pool   *sqlitex.Pool
	clock  clock.Clock
	logger *slog.Logger

	// mu guards closed and sending on queue. Senders hold the read
	// lock; Close holds the write lock.
	mu     sync.RWMutex
	closed bool
	queue  chan queued
	done   chan struct{}
}

// Open opens (creating if needed) the journal at config.Path and
// starts its writer.
func Open(config Config) (*Journal, error) {
	if config.Path == "" {
		return nil, errors.New("journal: Path is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaultQueueSize
	}

	pool, err := openPool(config.Path)
	if err != nil {
		return nil, err
	}
	journal := &Journal{
		pool:   pool,
		clock:  config.Clock,
		logger: config.Logger,
		queue:  make(chan queued, config.QueueSize),
		done:   make(chan struct{}),
	}
	go journal.write()
	journal.logger.Info("journal opened", "path", config.Path)
	return journal, nil
}

// QuestionAdded implements question.Observer.
func (j *Journal) QuestionAdded(q *question.Question) { j.record(q, EventAdded) }

// QuestionAnswered implements question.Observer.
func (j *Journal) QuestionAnswered(q *question.Question) { j.record(q, EventAnswered) }

// QuestionRemoved implements question.Observer.
func (j *Journal) QuestionRemoved(q *question.Question) { j.record(q, EventRemoved) }

func (j *Journal) record(q *question.Question, eventType string) {
	event := Event{
		QuestionID: q.ID(),
		Class:      q.Class(),
		Text:       q.Text(),
		Type:       eventType,
		At:         j.clock.Now().UTC(),
	}
	if eventType != EventAdded {
		event.Answer = q.Answer()
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return
	}
	select {
	case j.queue <- queued{event: event}:
	default:
		j.logger.Warn("journal queue full, dropping event",
			"question_id", event.QuestionID,
			"event", eventType,
		)
	}
}

func (j *Journal) write() {
	defer close(j.done)
	for item := range j.queue {
		if item.barrier != nil {
			close(item.barrier)
			continue
		}
		if err := j.insert(item.event); err != nil {
			j.logger.Error("writing journal event failed",
				"question_id", item.event.QuestionID,
				"event", item.event.Type,
				"error", err,
			)
		}
	}
}

func (j *Journal) insert(event Event) error {
	conn, err := j.pool.Take(context.Background())
	if err != nil {
		return err
	}
	defer j.pool.Put(conn)
	return sqlitex.Execute(conn,
		`INSERT INTO events (question_id, class, text, event, answer, at) VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				int64(event.QuestionID),
				event.Class,
				event.Text,
				event.Type,
				event.Answer,
				event.At.Format(time.RFC3339Nano),
			},
		})
}

// Sync blocks until every event queued before the call is written.
func (j *Journal) Sync(ctx context.Context) error {
	barrier := make(chan struct{})
	j.mu.RLock()
	if j.closed {
		j.mu.RUnlock()
		return ErrClosed
	}
	select {
	case j.queue <- queued{barrier: barrier}:
	case <-ctx.Done():
		j.mu.RUnlock()
		return ctx.Err()
	}
	j.mu.RUnlock()

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recent returns up to limit events, newest first. A non-positive
// limit returns every event.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Event, error) {
	j.mu.RLock()
	closed := j.closed
	j.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	conn, err := j.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	defer j.pool.Put(conn)

	if limit <= 0 {
		limit = -1
	}
	var events []Event
	err = sqlitex.Execute(conn,
		`SELECT id, question_id, class, text, event, answer, at FROM events ORDER BY id DESC LIMIT ?`,
		&sqlitex.ExecOptions{
			Args: []any{limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				at, err := time.Parse(time.RFC3339Nano, stmt.ColumnText(6))
				if err != nil {
					return fmt.Errorf("event %d: %w", stmt.ColumnInt64(0), err)
				}
				events = append(events, Event{
					Seq:        stmt.ColumnInt64(0),
					QuestionID: uint32(stmt.ColumnInt64(1)),
					Class:      stmt.ColumnText(2),
					Text:       stmt.ColumnText(3),
					Type:       stmt.ColumnText(4),
					Answer:     stmt.ColumnText(5),
					At:         at,
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return events, nil
}

// Close writes the queued events and closes the database. Events
// recorded afterwards are ignored.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	close(j.queue)
	j.mu.Unlock()

	<-j.done
	if err := j.pool.Close(); err != nil {
		return fmt.Errorf("closing journal: %w", err)
	}
	return nil
}
