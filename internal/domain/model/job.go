package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a TranscodingJob.
type JobStatus string

const (
	JobQueued     JobStatus = "QUEUED"
	JobProcessing JobStatus = "PROCESSING"
	JobCompleted  JobStatus = "COMPLETED"
	JobFailed     JobStatus = "FAILED"
	JobRetrying   JobStatus = "RETRYING"
)

// JobType enumerates the kinds of durable work the queue carries.
// Only HLSTranscode is exercised; ThumbnailOnly is reserved (spec §1 Non-goal:
// thumbnail-only job type, queue name reserved, code path unused).
type JobType string

const (
	JobTypeHLSTranscode  JobType = "HLS_TRANSCODE"
	JobTypeThumbnailOnly JobType = "THUMBNAIL_ONLY"
)

const DefaultMaxAttempts = 3

// JobProgressDetail is the JSON blob persisted alongside progressPercentage.
type JobProgressDetail struct {
	Percent               int      `json:"percent"`
	CurrentResolution     string   `json:"current_resolution,omitempty"`
	CompletedResolutions  []string `json:"completed_resolutions"`
	CurrentTask           string   `json:"current_task,omitempty"`
	EstimatedTimeRemaining string  `json:"estimated_time_remaining,omitempty"`
}

// JobData snapshots the inputs a worker needs to execute an attempt.
type JobData struct {
	Resolutions []Resolution `json:"resolutions"`
	InputPath   string       `json:"input_path"`
}

// TranscodingJob is the worker's durable unit of work for one video.
type TranscodingJob struct {
	ID                  uuid.UUID
	JobKey              string // deterministic: transcode-{videoId}
	VideoID             uuid.UUID
	JobType             JobType
	Status              JobStatus
	ProgressPercentage  int
	Progress            JobProgressDetail
	AttemptCount        int
	MaxAttempts         int
	JobData             JobData
	ResultData          string
	ErrorMessage        string
	CreatedAt           time.Time
	StartedAt           *time.Time
	CompletedAt         *time.Time
	NextRetryAt         *time.Time
	WorkerID            string
}

// JobKeyFor returns the deterministic external key used for queue de-duplication.
func JobKeyFor(videoID uuid.UUID) string {
	return fmt.Sprintf("transcode-%s", videoID)
}

// NewTranscodingJob creates a job row in QUEUED status alongside its Video.
func NewTranscodingJob(videoID uuid.UUID, resolutions []Resolution, inputPath string, maxAttempts int) *TranscodingJob {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &TranscodingJob{
		ID:          uuid.New(),
		JobKey:      JobKeyFor(videoID),
		VideoID:     videoID,
		JobType:     JobTypeHLSTranscode,
		Status:      JobQueued,
		MaxAttempts: maxAttempts,
		JobData: JobData{
			Resolutions: resolutions,
			InputPath:   inputPath,
		},
		Progress:  JobProgressDetail{CompletedResolutions: []string{}},
		CreatedAt: time.Now(),
	}
}
