// Package events publishes recorded detections to Redis Streams for
// downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/rage-tracker/internal/domain"
	"github.com/jonesrussell/rage-tracker/internal/logger"
)

// asyncPublishTimeout is the context timeout for async publish operations.
const asyncPublishTimeout = 5 * time.Second

// Publisher publishes detections to a Redis stream.
type Publisher struct {
	client *redis.Client
	stream string
	log    logger.Logger
}

// NewPublisher creates a new detection publisher.
// Returns nil if client is nil.
func NewPublisher(client *redis.Client, stream string, log logger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	return &Publisher{
		client: client,
		stream: stream,
		log:    log,
	}
}

// Publish sends a detection to the Redis stream.
func (p *Publisher) Publish(ctx context.Context, d domain.Detection) error {
	if p == nil || p.client == nil {
		return nil // No-op if publisher not configured
	}

	// Ensure the detection has an ID and receipt timestamp
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.DetectedAt.IsZero() {
		d.DetectedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal detection: %w", err)
	}

	result := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"detection": string(payload),
		},
	})

	if publishErr := result.Err(); publishErr != nil {
		if p.log != nil {
			p.log.Error("Failed to publish detection",
				logger.String("session_id", d.SessionID),
				logger.String("element", d.Element),
				logger.Error(publishErr),
			)
		}
		return fmt.Errorf("publish to stream: %w", publishErr)
	}

	if p.log != nil {
		p.log.Info("Published detection",
			logger.String("session_id", d.SessionID),
			logger.String("element", d.Element),
			logger.String("stream_id", result.Val()),
		)
	}

	return nil
}

// PublishAsync publishes a detection asynchronously.
// Errors are logged but not returned.
func (p *Publisher) PublishAsync(d domain.Detection) {
	if p == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		defer cancel()

		if err := p.Publish(ctx, d); err != nil && p.log != nil {
			p.log.Error("Async publish failed",
				logger.String("session_id", d.SessionID),
				logger.String("element", d.Element),
				logger.Error(err),
			)
		}
	}()
}
