// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "streamforge"

var (
	// CacheOperationsTotal tracks cache operations (get, set, delete).
	// Labels:
	//   - operation: get, set, delete
	//   - status: hit, miss, success, error
	//   - cache_type: redis
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "status", "cache_type"},
	)

	// DBQueriesTotal tracks database queries.
	// Labels:
	//   - query_type: select, insert, update, delete
	//   - table: videos
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_queries_total",
			Help:      "Total number of database queries",
		},
		[]string{"query_type", "table"},
	)

	// SingleflightRequestsTotal tracks singleflight behavior.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)

	// JobsEnqueuedTotal tracks transcoding jobs submitted to the queue.
	// Labels:
	//   - priority: low, normal, high
	JobsEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_enqueued_total",
			Help:      "Total number of transcoding jobs enqueued",
		},
		[]string{"priority"},
	)

	// JobsCompletedTotal tracks terminal job outcomes.
	// Labels:
	//   - result: ready, failed
	JobsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_completed_total",
			Help:      "Total number of transcoding jobs that reached a terminal state",
		},
		[]string{"result"},
	)

	// QueueDepth reports the current queue size by state, sampled from the
	// job queue's Stats call.
	// Labels:
	//   - state: pending, active, retry, failed
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Current number of jobs in the queue by state",
		},
		[]string{"state"},
	)

	// WorkerJobDuration tracks how long one transcoding job takes from its
	// creation to its terminal state.
	// Labels:
	//   - result: ready, failed
	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "worker_job_duration_seconds",
			Help:      "Duration of a transcoding job from creation to terminal state",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s .. 2048s (~34min)
		},
		[]string{"result"},
	)

	// StorageOperationsTotal tracks object storage calls.
	// Labels:
	//   - operation: upload, download, delete, delete_prefix, exists, stat
	//   - status: success, error
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_operations_total",
			Help:      "Total number of object storage operations",
		},
		[]string{"operation", "status"},
	)
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet    = "get"
	CacheOpSet    = "set"
	CacheOpDelete = "delete"
)

// Cache type constants.
const (
	CacheTypeRedis = "redis"
)

// DB query type constants.
const (
	DBQuerySelect = "select"
	DBQueryInsert = "insert"
	DBQueryUpdate = "update"
	DBQueryDelete = "delete"
)

// Table name constants.
const (
	TableVideos  = "videos"
	TableOutputs = "video_outputs"
	TableJobs    = "transcoding_jobs"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)

// Job priority constants, mirroring repository.Priority band names.
const (
	JobPriorityLow    = "low"
	JobPriorityNormal = "normal"
	JobPriorityHigh   = "high"
)

// Job terminal result constants.
const (
	JobResultReady  = "ready"
	JobResultFailed = "failed"
)

// Queue depth state constants.
const (
	QueueStatePending   = "pending"
	QueueStateActive    = "active"
	QueueStateRetry     = "retry"
	QueueStateCompleted = "completed"
	QueueStateFailed    = "failed"
)

// Storage operation constants.
const (
	StorageOpUpload       = "upload"
	StorageOpDownload     = "download"
	StorageOpDelete       = "delete"
	StorageOpDeletePrefix = "delete_prefix"
	StorageOpExists       = "exists"
	StorageOpStat         = "stat"
)
