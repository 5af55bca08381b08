package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	events, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	want := []Event{
		{Kind: EventMark, RecordID: "rec-1"},
		{Kind: EventMark, RecordID: "rec-2"},
	}
	for _, evt := range want {
		if err := q.Publish(ctx, evt); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	for _, w := range want {
		select {
		case got := <-events:
			if got != w {
				t.Errorf("event = %+v, want %+v", got, w)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestInMemoryConsumeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewInMemory(1)
	events, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	cancel()
	select {
	case _, open := <-events:
		if open {
			t.Fatal("received event after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestInMemoryPublishRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewInMemory(1)

	if err := q.Publish(ctx, Event{Kind: EventMark, RecordID: "rec-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	cancel()
	// Buffer is full and nobody consumes, so the second publish must fail
	// with the context error instead of blocking.
	if err := q.Publish(ctx, Event{Kind: EventMark, RecordID: "rec-2"}); err != context.Canceled {
		t.Errorf("publish after cancel: err = %v, want context.Canceled", err)
	}
}
