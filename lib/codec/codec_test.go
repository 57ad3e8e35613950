// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
	"time"
)

type answerRequest struct {
	Action string `cbor:"action"`
	ID     uint32 `cbor:"id"`
	Option string `cbor:"option,omitempty"`
}

func TestMarshalIsDeterministic(t *testing.T) {
	request := map[string]any{"action": "answer", "id": 3, "option": "yes"}
	first, err := Marshal(request)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Marshal(request)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding differs between runs: %x vs %x", first, again)
		}
	}
}

func TestGenericMapsDecodeWithStringKeys(t *testing.T) {
	data, err := Marshal(answerRequest{Action: "answer", ID: 7, Option: "skip"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	fields, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded %T, want map[string]any", decoded)
	}
	if fields["action"] != "answer" || fields["option"] != "skip" {
		t.Errorf("fields = %v", fields)
	}
}

func TestStreamDecodesHeaderThenBody(t *testing.T) {
	var buffer bytes.Buffer
	if err := NewEncoder(&buffer).Encode(answerRequest{Action: "answer", ID: 2, Option: "no"}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var raw RawMessage
	if err := NewDecoder(&buffer).Decode(&raw); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	var header struct {
		Action string `cbor:"action"`
	}
	if err := Unmarshal(raw, &header); err != nil {
		t.Fatalf("Unmarshal header: %v", err)
	}
	var body answerRequest
	if err := Unmarshal(raw, &body); err != nil {
		t.Fatalf("Unmarshal body: %v", err)
	}
	if header.Action != "answer" || body.ID != 2 || body.Option != "no" {
		t.Errorf("header %+v body %+v", header, body)
	}
}

func TestTimeRoundTrip(t *testing.T) {
	at := time.Date(2026, 10, 19, 12, 30, 0, 500, time.UTC)
	data, err := Marshal(struct {
		At time.Time `cbor:"at"`
	}{At: at})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded struct {
		At time.Time `cbor:"at"`
	}
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.At.Equal(at) {
		t.Errorf("At = %v, want %v", decoded.At, at)
	}
}
