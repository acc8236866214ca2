package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestMutationMessageJSON(t *testing.T) {
	msg := MutationMessage{
		Event:     TransactionsAdded,
		IDs:       []string{"a", "b"},
		Actor:     "u1",
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got MutationMessage
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Event != TransactionsAdded || len(got.IDs) != 2 || got.Actor != "u1" {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestMutationMessageOmitsEmpty(t *testing.T) {
	body, err := json.Marshal(MutationMessage{Event: CategoriesChanged, Timestamp: time.Now()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["ids"]; ok {
		t.Fatal("empty ids should be omitted")
	}
	if _, ok := m["actor"]; ok {
		t.Fatal("empty actor should be omitted")
	}
}

func TestNilPublisherIsNoOp(t *testing.T) {
	var p *Publisher
	// Must not panic.
	p.Publish(context.Background(), TransactionsDeleted, "u1", "t1")
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
