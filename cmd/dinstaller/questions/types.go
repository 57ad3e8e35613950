// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package questions

import "time"

// questionEntry is a pending question as returned by "list" and "new".
type questionEntry struct {
	ID            uint32   `cbor:"id"                       json:"id"`
	Path          string   `cbor:"path"                     json:"path"`
	Class         string   `cbor:"class"                    json:"class"`
	Kind          string   `cbor:"kind"                     json:"kind"`
	Text          string   `cbor:"text"                     json:"text"`
	Options       []string `cbor:"options"                  json:"options"`
	DefaultOption string   `cbor:"default_option,omitempty" json:"default_option,omitempty"`
	Answer        string   `cbor:"answer,omitempty"         json:"answer,omitempty"`
	Device        string   `cbor:"device,omitempty"         json:"device,omitempty"`
	Label         string   `cbor:"label,omitempty"          json:"label,omitempty"`
	Attempt       uint8    `cbor:"attempt,omitempty"        json:"attempt,omitempty"`
}

type historyEntry struct {
	Seq        int64     `cbor:"seq"              json:"seq"`
	QuestionID uint32    `cbor:"question_id"      json:"question_id"`
	Class      string    `cbor:"class"            json:"class"`
	Text       string    `cbor:"text"             json:"text"`
	Event      string    `cbor:"event"            json:"event"`
	Answer     string    `cbor:"answer,omitempty" json:"answer,omitempty"`
	At         time.Time `cbor:"at"               json:"at"`
}

type waitResult struct {
	Answered bool              `cbor:"answered"`
	Answers  map[uint32]string `cbor:"answers,omitempty"`
}

type statusResult struct {
	UptimeSeconds int  `cbor:"uptime_seconds" json:"uptime_seconds"`
	Pending       int  `cbor:"pending"        json:"pending"`
	Interactive   bool `cbor:"interactive"    json:"interactive"`
	Journal       bool `cbor:"journal"        json:"journal"`
}
