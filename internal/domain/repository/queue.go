package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/streamforge/streamforge/internal/domain/model"
)

// TranscodeTask is the payload carried by the durable job queue for one
// transcoding attempt.
type TranscodeTask struct {
	JobID        uuid.UUID          `json:"job_id"`
	VideoID      uuid.UUID          `json:"video_id"`
	Resolutions  []model.Resolution `json:"resolutions"`
	InputPath    string             `json:"input_path"`
	AttemptCount int                `json:"attempt_count"`

	// MaxAttempts travels with the task payload so the queue driver can set
	// its own native retry limit without consulting the database: a task
	// redelivered by the queue carries the same payload every time, so a
	// value derived from the job row at enqueue time is the only one a
	// retry can see.
	MaxAttempts int `json:"max_attempts"`
}

// Priority controls dequeue order within the job queue.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityNormal Priority = 5
	PriorityHigh   Priority = 10
)

// JobQueue defines the interface for durable transcoding job transport.
// Implementations should be provided by the infrastructure layer (e.g., asynq/Redis).
type JobQueue interface {
	// Enqueue submits a transcoding task under its job's deterministic key.
	// Returns ErrJobAlreadyQueued if a task with the same key is already
	// queued or processing, enforcing at most one active job per video.
	Enqueue(ctx context.Context, jobKey string, task TranscodeTask, priority Priority) error

	// Consume starts processing tasks from the queue with the given
	// concurrency, invoking handler for each. Blocks until ctx is canceled.
	Consume(ctx context.Context, concurrency int, handler func(ctx context.Context, task TranscodeTask) error) error

	// Stats reports queue depth by state, used for operational metrics.
	Stats(ctx context.Context) (QueueStats, error)

	// Close releases the queue's underlying connection.
	Close() error
}

// QueueStats is a point-in-time snapshot of queue depth.
type QueueStats struct {
	Pending    int
	Active     int
	Retry      int
	Completed  int
	Failed     int
}
