// Package task runs the background pipeline: a durable queue, a cron
// scheduler over tenants, and the retry wrapper around each task body. The
// broker is deliberately left generic behind the Queue interface — any
// durable work-queue satisfies the contract — with RedisQueue as the one
// concrete implementation, since go-redis is already the teacher's direct
// dependency.
package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Kind is the closed set of task bodies the pipeline runs.
type Kind string

const (
	KindBuildSnapshot    Kind = "build_snapshot"
	KindDetectDrift      Kind = "detect_drift"
	KindSendNotification Kind = "send_notification"
)

// Handler processes one task's payload. Returning an Unavailable or Timeout
// *apperr.Error retries the task; any other error is terminal for this
// delivery.
type Handler func(ctx context.Context, payload []byte) error

// EnqueueOptions configures an Enqueue call.
type EnqueueOptions struct {
	// Delay defers visibility of the task, used by the retry wrapper to
	// back off before the next attempt.
	Delay time.Duration
}

// Queue is the durable work-queue contract: enqueue a task body, subscribe a
// handler to a kind, consumed by the scheduler and the retry wrapper.
type Queue interface {
	Enqueue(ctx context.Context, kind Kind, payload any, opts EnqueueOptions) (string, error)
	Subscribe(ctx context.Context, kind Kind, handler Handler) error
}

// RedisQueue backs Queue with Redis Streams: XADD to enqueue, a consumer
// group's XREADGROUP to subscribe, with XACK on success and redelivery from
// the pending-entries list on failure. Streams were chosen over the
// teacher's pub/sub because pub/sub is fire-and-forget — a subscriber that
// is down when a message is published loses it — while the Streams
// consumer group gives at-least-once delivery the retry wrapper depends on.
type RedisQueue struct {
	rdb    *redis.Client
	group  string
	logger *slog.Logger
}

// NewRedisQueue creates a RedisQueue. group names the consumer group every
// Subscribe call joins; a single group per queue is the common case.
func NewRedisQueue(rdb *redis.Client, group string, logger *slog.Logger) *RedisQueue {
	return &RedisQueue{rdb: rdb, group: group, logger: logger}
}

func streamName(kind Kind) string {
	return "meshdrift:tasks:" + string(kind)
}

// Enqueue appends payload (JSON-encoded) to the stream for kind. Delay is
// recorded as a field and honored by Subscribe's poll loop rather than by
// Redis itself, since Streams has no native delayed-visibility primitive.
func (q *RedisQueue) Enqueue(ctx context.Context, kind Kind, payload any, opts EnqueueOptions) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding task payload: %w", err)
	}

	notBefore := time.Now().Add(opts.Delay)
	id, err := q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName(kind),
		Values: map[string]any{
			"payload":    body,
			"not_before": notBefore.UnixMilli(),
			"task_id":    uuid.NewString(),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("enqueuing task %s: %w", kind, err)
	}
	return id, nil
}

// Subscribe joins the consumer group for kind and processes deliveries with
// handler until ctx is cancelled. handler is expected to already carry its
// own retry wrapper, so any error it returns here is terminal: the
// delivery is logged with full context and ACKed off the pending-entries
// list rather than left stuck there forever.
func (q *RedisQueue) Subscribe(ctx context.Context, kind Kind, handler Handler) error {
	stream := streamName(kind)
	consumer := "consumer-" + uuid.NewString()

	if err := q.rdb.XGroupCreateMkStream(ctx, stream, q.group, "0").Err(); err != nil && err != redis.Nil {
		if !isBusyGroupErr(err) {
			return fmt.Errorf("creating consumer group for %s: %w", kind, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		res, err := q.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			return fmt.Errorf("reading task stream %s: %w", kind, err)
		}

		for _, streamResult := range res {
			for _, msg := range streamResult.Messages {
				if !ready(msg.Values) {
					continue
				}
				payload, _ := msg.Values["payload"].(string)
				if err := handler(ctx, []byte(payload)); err != nil {
					q.logger.Error("task delivery exhausted, dropping",
						"kind", kind, "message_id", msg.ID, "payload", payload, "error", err)
				}
				q.rdb.XAck(ctx, stream, q.group, msg.ID)
			}
		}
	}
}

func ready(values map[string]any) bool {
	raw, ok := values["not_before"]
	if !ok {
		return true
	}
	s, _ := raw.(string)
	notBefore, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return true
	}
	return time.Now().UnixMilli() >= notBefore
}

func isBusyGroupErr(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP ")
}
