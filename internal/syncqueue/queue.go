package syncqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

const defaultQueueKey = "sync:offline_appointments"

// Queue buffers offline booking entries in a Redis list until the worker
// drains them through the reconciler.
type Queue struct {
	client *redis.Client
	key    string
}

func NewQueue(client *redis.Client) *Queue {
	return &Queue{
		client: client,
		key:    defaultQueueKey,
	}
}

func (q *Queue) Push(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	values := make([]any, 0, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal queue entry: %w", err)
		}
		values = append(values, data)
	}

	if err := q.client.RPush(ctx, q.key, values...).Err(); err != nil {
		return fmt.Errorf("push queue entries: %w", err)
	}

	return nil
}

// Pop removes and returns up to max entries from the head of the queue.
// Entries that fail to decode are dropped with a log line, they would never
// succeed on retry.
func (q *Queue) Pop(ctx context.Context, max int) ([]Entry, error) {
	raw, err := q.client.LPopCount(ctx, q.key, max).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("pop queue entries: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			log.Printf("dropping malformed offline queue entry: %v", err)
			continue
		}
		entries = append(entries, e)
	}

	return entries, nil
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("queue length: %w", err)
	}
	return n, nil
}
