package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the processing state of a video.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusReady      Status = "READY"
	StatusFailed     Status = "FAILED"
)

// Valid status transitions:
// PENDING -> PROCESSING -> READY
//                     \-> FAILED
// READY and FAILED are terminal unless an explicit retry resets to PENDING.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusReady, StatusFailed},
	StatusReady:      {StatusPending},
	StatusFailed:     {StatusPending},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusReady, StatusFailed:
		return true
	default:
		return false
	}
}

func (s Status) CanTransitionTo(next Status) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, status := range allowed {
		if status == next {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

const (
	maxTitleLength       = 255
	maxDescriptionLength = 2000
	maxTags              = 10
	maxTagLength         = 50
)

var (
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrTitleTooLong       = errors.New("title exceeds maximum length of 255 characters")
	ErrDescriptionTooLong = errors.New("description exceeds maximum length of 2000 characters")
	ErrTooManyTags        = errors.New("at most 10 tags are allowed")
	ErrTagTooLong         = errors.New("tag exceeds maximum length of 50 characters")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

// Video represents the logical asset uploaded by a client.
type Video struct {
	ID              uuid.UUID
	Title           string
	Description     string
	Tags            []string
	OriginalName    string
	Extension       string // lowercased, leading dot
	FileSize        int64
	MimeType        string
	UploadPath      string // storage path of the source blob
	DurationSeconds *int
	ThumbnailPath   *string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProcessedAt     *time.Time
}

// NewVideo validates and constructs a Video in PENDING status.
func NewVideo(title, description string, tags []string, originalName, extension string, fileSize int64, mimeType, uploadPath string) (*Video, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if len(title) > maxTitleLength {
		return nil, ErrTitleTooLong
	}
	if len(description) > maxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}
	if len(tags) > maxTags {
		return nil, ErrTooManyTags
	}
	for _, tag := range tags {
		if len(tag) > maxTagLength {
			return nil, ErrTagTooLong
		}
	}

	now := time.Now()
	return &Video{
		ID:           uuid.New(),
		Title:        title,
		Description:  description,
		Tags:         tags,
		OriginalName: originalName,
		Extension:    strings.ToLower(extension),
		FileSize:     fileSize,
		MimeType:     mimeType,
		UploadPath:   uploadPath,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// TransitionTo attempts to change the video status, enforcing the state machine.
// Entering READY stamps processedAt; returning to PENDING clears processedAt
// and thumbnailPath. The thumbnail path is only ever set by SetThumbnail.
func (v *Video) TransitionTo(next Status) error {
	if !next.IsValid() {
		return ErrInvalidTransition
	}
	if !v.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	v.Status = next
	v.UpdatedAt = time.Now()

	switch next {
	case StatusReady:
		now := time.Now()
		v.ProcessedAt = &now
	case StatusPending:
		v.ProcessedAt = nil
		v.ThumbnailPath = nil
	}
	return nil
}

// SetMetadata records probed media metadata (duration, rounded to the nearest second).
func (v *Video) SetMetadata(durationSeconds int) {
	d := durationSeconds
	v.DurationSeconds = &d
	v.UpdatedAt = time.Now()
}

// SetThumbnail records the storage path of the generated thumbnail.
func (v *Video) SetThumbnail(path string) {
	v.ThumbnailPath = &path
	v.UpdatedAt = time.Now()
}

// IsReady reports whether the video is ready for streaming.
func (v *Video) IsReady() bool {
	return v.Status == StatusReady
}

// IsFailed reports whether video processing failed terminally.
func (v *Video) IsFailed() bool {
	return v.Status == StatusFailed
}
