package repository

import "errors"

var (
	// ErrVideoNotFound is returned when a video cannot be found.
	ErrVideoNotFound = errors.New("video not found")

	// ErrDuplicateVideo is returned when attempting to create a video that already exists.
	ErrDuplicateVideo = errors.New("video already exists")

	// ErrOutputNotFound is returned when a requested rendition does not exist.
	ErrOutputNotFound = errors.New("output not found")

	// ErrJobNotFound is returned when a transcoding job cannot be found.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobAlreadyQueued is returned when a job with the same deterministic
	// key is already queued or processing for a video.
	ErrJobAlreadyQueued = errors.New("job already queued for this video")

	// ErrObjectNotFound is returned when an object cannot be found in storage.
	ErrObjectNotFound = errors.New("object not found")

	// ErrBucketNotFound is returned when the specified bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrPlaylistNotFound is returned when a variant playlist has not been generated yet.
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrMasterPlaylistNotFound is returned when the master playlist has not been generated yet.
	ErrMasterPlaylistNotFound = errors.New("master playlist not found")

	// ErrSegmentNotFound is returned when a requested segment does not exist.
	ErrSegmentNotFound = errors.New("segment not found")

	// ErrThumbnailNotFound is returned when no thumbnail has been generated yet.
	ErrThumbnailNotFound = errors.New("thumbnail not found")

	// ErrQueueUnavailable is returned when the job queue cannot accept or
	// report work (e.g. the Redis backend is unreachable).
	ErrQueueUnavailable = errors.New("queue unavailable")

	// ErrStorageUnavailable is returned when the object/local storage backend
	// cannot service a request.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrAllRenditionsFailed is returned when every requested resolution
	// failed to encode, or none survived the never-upscale filter.
	ErrAllRenditionsFailed = errors.New("all renditions failed")

	// ErrVideoNotReady is returned when a streaming operation is attempted
	// against a video that exists but has not reached READY status.
	ErrVideoNotReady = errors.New("video not ready")
)
