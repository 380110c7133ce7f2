package integration

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/wisbric/meshdrift/pkg/drift"
)

// RedisPublisher broadcasts drift events to a per-tenant Redis pub/sub
// topic, grounded on escalation.Engine's rdb.Publish("nightowl:alert:escalated", ...)
// call. Events are published fire-and-forget, unlike the durable task.Queue
// used for the detection pipeline itself, since a missed broadcast to an
// external SIEM or dashboard is not retried.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher creates a RedisPublisher.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func topicName(tenantID uuid.UUID) string {
	return "drift_events:" + tenantID.String()
}

// Publish JSON-encodes events and publishes them as a single message to the
// tenant's topic.
func (p *RedisPublisher) Publish(ctx context.Context, tenantID uuid.UUID, events []drift.Event) error {
	if len(events) == 0 {
		return nil
	}

	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encoding drift events: %w", err)
	}

	if err := p.rdb.Publish(ctx, topicName(tenantID), string(payload)).Err(); err != nil {
		return fmt.Errorf("publishing drift events: %w", err)
	}
	return nil
}
