// internal/scheduler/queue.go
package scheduler

import (
	"context"
	"fmt"

	"job-snatcher/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

// Queue is a FIFO Redis list of posting URLs waiting for the next batch.
type Queue struct {
	client redis.Cmdable
	key    string
}

func NewQueue(client redis.Cmdable, key string) *Queue {
	return &Queue{client: client, key: key}
}

// Push appends urls and returns the new queue length.
func (q *Queue) Push(ctx context.Context, urls ...string) (int64, error) {
	if len(urls) == 0 {
		return q.Len(ctx)
	}
	values := make([]interface{}, len(urls))
	for i, u := range urls {
		values[i] = u
	}
	n, err := q.client.RPush(ctx, q.key, values...).Result()
	if err != nil {
		return 0, fmt.Errorf("enqueue urls: %w", err)
	}
	metrics.PendingQueueDepth.Set(float64(n))
	return n, nil
}

// Pop removes and returns up to max URLs from the head. max <= 0 drains the queue.
func (q *Queue) Pop(ctx context.Context, max int) ([]string, error) {
	stop := int64(max) - 1
	if max <= 0 {
		stop = -1
	}

	var rng *redis.StringSliceCmd
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		rng = pipe.LRange(ctx, q.key, 0, stop)
		if stop < 0 {
			pipe.Del(ctx, q.key)
		} else {
			pipe.LTrim(ctx, q.key, stop+1, -1)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dequeue urls: %w", err)
	}

	urls := rng.Val()
	if n, err := q.client.LLen(ctx, q.key).Result(); err == nil {
		metrics.PendingQueueDepth.Set(float64(n))
	}
	return urls, nil
}

// Len returns the number of pending URLs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("queue length: %w", err)
	}
	return n, nil
}
