package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stemsi/riskwatch-backend/internal/config"
	"github.com/stemsi/riskwatch-backend/internal/model"
)

// ErrQueueEmpty is returned by Pop when no job arrived before the timeout.
var ErrQueueEmpty = errors.New("queue empty")

// AlertQueue is the Redis list feeding the alert worker.
type AlertQueue struct {
	rdb *redis.Client
}

// NewAlertQueue creates a new AlertQueue.
func NewAlertQueue(rdb *redis.Client) *AlertQueue {
	return &AlertQueue{rdb: rdb}
}

// Enqueue appends a job to the queue.
func (q *AlertQueue) Enqueue(ctx context.Context, job model.AlertJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rdb.RPush(ctx, config.WorkerKey.AlertQueue, raw).Err()
}

// Pop blocks up to timeout for the next job. A payload that fails to decode
// is returned as raw bytes alongside the error so the caller can log it.
func (q *AlertQueue) Pop(ctx context.Context, timeout time.Duration) (model.AlertJob, []byte, error) {
	var job model.AlertJob

	item, err := q.rdb.BLPop(ctx, timeout, config.WorkerKey.AlertQueue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return job, nil, ErrQueueEmpty
		}
		return job, nil, err
	}
	if len(item) < 2 {
		return job, nil, ErrQueueEmpty
	}

	raw := []byte(item[1])
	if err := json.Unmarshal(raw, &job); err != nil {
		return job, raw, err
	}
	return job, raw, nil
}

// DeadLetter parks a payload that can never be delivered.
func (q *AlertQueue) DeadLetter(ctx context.Context, raw []byte) error {
	return q.rdb.RPush(ctx, config.WorkerKey.AlertDeadLetters, raw).Err()
}

// Reserve marks an alert for (advisor, student) as in flight for window.
// It reports false when one was already reserved.
func (q *AlertQueue) Reserve(ctx context.Context, advisorID, studentID int, window time.Duration) (bool, error) {
	return q.rdb.SetNX(ctx, config.CacheKey.AlertDedupKey(advisorID, studentID), time.Now().Unix(), window).Result()
}

// Release drops a reservation made by Reserve.
func (q *AlertQueue) Release(ctx context.Context, advisorID, studentID int) error {
	return q.rdb.Del(ctx, config.CacheKey.AlertDedupKey(advisorID, studentID)).Err()
}

// QueueStats holds the current queue depths.
type QueueStats struct {
	Queued       int64 `json:"queued"`
	DeadLettered int64 `json:"dead_lettered"`
}

// Stats reads both queue lengths in one round trip.
func (q *AlertQueue) Stats(ctx context.Context) (QueueStats, error) {
	pipe := q.rdb.Pipeline()
	queued := pipe.LLen(ctx, config.WorkerKey.AlertQueue)
	dead := pipe.LLen(ctx, config.WorkerKey.AlertDeadLetters)
	if _, err := pipe.Exec(ctx); err != nil {
		return QueueStats{}, err
	}
	return QueueStats{Queued: queued.Val(), DeadLettered: dead.Val()}, nil
}
