// Package events_test provides tests for the events package.
package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/rage-tracker/internal/domain"
	"github.com/jonesrussell/rage-tracker/internal/events"
	"github.com/jonesrussell/rage-tracker/internal/logger"
)

const testStream = "rage-clicks"

func newTestDetection() domain.Detection {
	return domain.Detection{
		SessionID: "sess1",
		Element:   `button#checkout "Buy now"`,
		X:         412,
		Y:         318,
		Clicks:    4,
		URL:       "https://example.com/checkout",
		Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func TestPublisher_NewPublisher_RequiresClient(t *testing.T) {
	pub := events.NewPublisher(nil, testStream, nil)
	if pub != nil {
		t.Error("expected nil publisher when client is nil")
	}
}

func TestPublisher_Publish_NilReceiverIsNoOp(t *testing.T) {
	var pub *events.Publisher

	// Should not panic and return nil
	err := pub.Publish(context.Background(), newTestDetection())
	if err != nil {
		t.Errorf("expected nil error for nil receiver, got: %v", err)
	}
}

func TestPublisher_PublishAsync_NilReceiverIsNoOp(t *testing.T) {
	var pub *events.Publisher

	// Should not panic
	pub.PublishAsync(newTestDetection())

	// Give the goroutine a chance to run (though it should return immediately)
	time.Sleep(10 * time.Millisecond)
}

func TestPublisher_Publish_AddsToStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	pub := events.NewPublisher(client, testStream, logger.NewNop())
	if pub == nil {
		t.Fatal("expected a publisher for a live client")
	}

	if err := pub.Publish(context.Background(), newTestDetection()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	msgs, err := client.XRange(context.Background(), testStream, "-", "+").Result()
	if err != nil {
		t.Fatalf("XRange() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("stream entries: got %d, want 1", len(msgs))
	}

	payload, ok := msgs[0].Values["detection"].(string)
	if !ok {
		t.Fatalf("expected a detection field, got %v", msgs[0].Values)
	}

	var d domain.Detection
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if d.SessionID != "sess1" {
		t.Errorf("session id: got %q, want %q", d.SessionID, "sess1")
	}
	if d.Clicks != 4 {
		t.Errorf("clicks: got %d, want 4", d.Clicks)
	}
	if d.ID == uuid.Nil {
		t.Error("expected the publisher to stamp a detection id")
	}
	if d.DetectedAt.IsZero() {
		t.Error("expected the publisher to stamp a receipt time")
	}
}
