package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestJobKeyFor(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	want := "transcode-00000000-0000-0000-0000-000000000001"

	if got := JobKeyFor(id); got != want {
		t.Errorf("JobKeyFor() = %v, want %v", got, want)
	}
}

func TestNewTranscodingJob(t *testing.T) {
	videoID := uuid.New()
	resolutions := []Resolution{Resolution480p, Resolution720p}

	job := NewTranscodingJob(videoID, resolutions, "uploads/raw/x.mp4", 0)

	if job.Status != JobQueued {
		t.Errorf("NewTranscodingJob() Status = %v, want %v", job.Status, JobQueued)
	}
	if job.JobKey != JobKeyFor(videoID) {
		t.Errorf("NewTranscodingJob() JobKey = %v, want %v", job.JobKey, JobKeyFor(videoID))
	}
	if job.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("NewTranscodingJob() MaxAttempts = %v, want %v (zero should default)", job.MaxAttempts, DefaultMaxAttempts)
	}
	if job.JobType != JobTypeHLSTranscode {
		t.Errorf("NewTranscodingJob() JobType = %v, want %v", job.JobType, JobTypeHLSTranscode)
	}
	if len(job.JobData.Resolutions) != 2 {
		t.Errorf("NewTranscodingJob() JobData.Resolutions len = %v, want 2", len(job.JobData.Resolutions))
	}
	if job.Progress.CompletedResolutions == nil {
		t.Error("NewTranscodingJob() should initialize CompletedResolutions to an empty slice")
	}
}

func TestNewTranscodingJob_CustomMaxAttempts(t *testing.T) {
	job := NewTranscodingJob(uuid.New(), nil, "uploads/raw/x.mp4", 5)

	if job.MaxAttempts != 5 {
		t.Errorf("NewTranscodingJob() MaxAttempts = %v, want 5", job.MaxAttempts)
	}
}
