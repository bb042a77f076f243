package history

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestPublisherAssignsIDAndTimestamp(t *testing.T) {
	queue := NewMemoryQueue(4)
	pub := NewPublisher(queue, nil)

	err := pub.Record(context.Background(), Summary{
		UserID:   "user-1",
		Issue:    "Flu",
		Symptoms: []string{"fever", "cough"},
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	msgs, err := queue.Receive(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("Receive returned error: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}

	var got Summary
	if err := json.Unmarshal([]byte(msgs[0].Body), &got); err != nil {
		t.Fatalf("failed to decode message body: %v", err)
	}
	if got.ID == "" {
		t.Fatal("expected a generated summary ID")
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected a generated CreatedAt")
	}
	if got.UserID != "user-1" || got.Issue != "Flu" {
		t.Fatalf("unexpected summary contents: %+v", got)
	}
}

func TestPublisherKeepsProvidedID(t *testing.T) {
	queue := NewMemoryQueue(4)
	pub := NewPublisher(queue, nil)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := pub.Record(context.Background(), Summary{
		ID:        "summary-7",
		UserID:    "user-2",
		Issue:     "Migraine",
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	msgs, _ := queue.Receive(context.Background(), 1, 0)
	var got Summary
	if err := json.Unmarshal([]byte(msgs[0].Body), &got); err != nil {
		t.Fatalf("failed to decode message body: %v", err)
	}
	if got.ID != "summary-7" {
		t.Fatalf("expected provided ID to survive, got %q", got.ID)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("expected provided CreatedAt to survive, got %v", got.CreatedAt)
	}
}

func TestMemoryQueueDrainsUpToBatch(t *testing.T) {
	queue := NewMemoryQueue(8)
	for i := 0; i < 5; i++ {
		if err := queue.Send(context.Background(), "payload"); err != nil {
			t.Fatalf("Send returned error: %v", err)
		}
	}

	msgs, err := queue.Receive(context.Background(), 3, 0)
	if err != nil {
		t.Fatalf("Receive returned error: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected batch of 3, got %d", len(msgs))
	}

	msgs, err = queue.Receive(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("Receive returned error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected remaining 2, got %d", len(msgs))
	}
}

func TestMemoryQueueReceiveRespectsContext(t *testing.T) {
	queue := NewMemoryQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := queue.Receive(ctx, 1, 10); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
