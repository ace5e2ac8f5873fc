package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/hibiken/asynq"

	"github.com/streamforge/streamforge/internal/domain/repository"
)

// TaskTypeTranscode is the asynq task type routed to the transcoding worker.
const TaskTypeTranscode = "transcode:run"

const (
	defaultBaseRetryDelay = 1 * time.Second
	defaultMaxRetryDelay  = 5 * time.Minute
)

// ClientConfig holds configuration for the asynq-backed job queue.
type ClientConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Queue         string // asynq queue name, defaults to "transcode" if empty

	// BaseRetryDelay and MaxRetryDelay govern the backoff asynq applies
	// between redeliveries of a failed task: delay = min(base*2^n, max).
	BaseRetryDelay time.Duration
	MaxRetryDelay  time.Duration
}

func (c ClientConfig) queueName() string {
	if c.Queue == "" {
		return "transcode"
	}
	return c.Queue
}

func (c ClientConfig) baseRetryDelay() time.Duration {
	if c.BaseRetryDelay <= 0 {
		return defaultBaseRetryDelay
	}
	return c.BaseRetryDelay
}

func (c ClientConfig) maxRetryDelay() time.Duration {
	if c.MaxRetryDelay <= 0 {
		return defaultMaxRetryDelay
	}
	return c.MaxRetryDelay
}

// retryDelay returns min(base*2^n, max), n being asynq's 0-indexed retry count.
func retryDelay(n int, base, max time.Duration) time.Duration {
	delay := base * time.Duration(math.Pow(2, float64(n)))
	if delay > max {
		return max
	}
	return delay
}

func (c ClientConfig) redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// Client implements repository.JobQueue on top of asynq/Redis. Deduplication
// is enforced via asynq's TaskID + ErrTaskIDConflict: Enqueue uses the job's
// deterministic key as the task ID, so a second submission for a video that
// already has a queued or in-flight job is rejected instead of double-run.
type Client struct {
	config ClientConfig
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
}

// Compile-time verification that Client implements repository.JobQueue.
var _ repository.JobQueue = (*Client)(nil)

// NewClient creates an asynq-backed job queue client.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		config: cfg,
		client: asynq.NewClient(cfg.redisOpt()),
	}
}

// priorityQueue maps repository.Priority bands onto the weighted asynq
// queues a Consume-side server is configured with.
func (c *Client) priorityQueue(p repository.Priority) string {
	base := c.config.queueName()
	switch {
	case p >= repository.PriorityHigh:
		return base + ":high"
	case p <= repository.PriorityLow:
		return base + ":low"
	default:
		return base
	}
}

// Enqueue submits a transcoding task under its job's deterministic key,
// translating asynq's task-ID conflict into ErrJobAlreadyQueued.
func (c *Client) Enqueue(ctx context.Context, jobKey string, task repository.TranscodeTask, priority repository.Priority) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	t := asynq.NewTask(TaskTypeTranscode, payload)

	maxAttempts := task.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	_, err = c.client.EnqueueContext(ctx, t,
		asynq.TaskID(jobKey),
		asynq.Queue(c.priorityQueue(priority)),
		// asynq.MaxRetry counts redeliveries after the first attempt, so
		// maxAttempts-1 gives exactly maxAttempts attempts total.
		asynq.MaxRetry(maxAttempts-1),
		asynq.Retention(0),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return repository.ErrJobAlreadyQueued
		}
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	return nil
}

// Consume starts an asynq server processing tasks from all priority queues
// with the given concurrency, invoking handler for each decoded task. Blocks
// until ctx is canceled.
func (c *Client) Consume(ctx context.Context, concurrency int, handler func(ctx context.Context, task repository.TranscodeTask) error) error {
	base := c.config.queueName()
	baseDelay, maxDelay := c.config.baseRetryDelay(), c.config.maxRetryDelay()
	c.server = asynq.NewServer(c.config.redisOpt(), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			base + ":high": 6,
			base:           3,
			base + ":low":  1,
		},
		RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
			return retryDelay(n, baseDelay, maxDelay)
		},
	})

	c.mux = asynq.NewServeMux()
	c.mux.HandleFunc(TaskTypeTranscode, func(ctx context.Context, t *asynq.Task) error {
		var task repository.TranscodeTask
		if err := json.Unmarshal(t.Payload(), &task); err != nil {
			return fmt.Errorf("failed to unmarshal task payload: %w", err)
		}
		return handler(ctx, task)
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.server.Run(c.mux)
	}()

	select {
	case <-ctx.Done():
		c.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Stats reports aggregate queue depth across all priority bands.
func (c *Client) Stats(ctx context.Context) (repository.QueueStats, error) {
	inspector := asynq.NewInspector(c.config.redisOpt())
	defer inspector.Close()

	queues, err := inspector.Queues()
	if err != nil {
		return repository.QueueStats{}, fmt.Errorf("failed to list queues: %w", err)
	}

	base := c.config.queueName()
	known := map[string]bool{base + ":high": true, base: true, base + ":low": true}

	var stats repository.QueueStats
	for _, q := range queues {
		if !known[q] {
			continue
		}
		info, err := inspector.GetQueueInfo(q)
		if err != nil {
			return repository.QueueStats{}, fmt.Errorf("failed to get queue info for %s: %w", q, err)
		}
		stats.Pending += info.Pending
		stats.Active += info.Active
		stats.Retry += info.Retry
		stats.Completed += info.Completed
		stats.Failed += info.Failed
	}

	return stats, nil
}

// Close releases the underlying Redis connections.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
