package handler

import (
	"fmt"
	"path/filepath"
	"strings"
)

var allowedVideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

const (
	maxUploadTitleLength = 255
	maxUploadTags        = 10
	maxUploadTagLength   = 50
	maxUploadFileSize    = 10 << 30 // 10 GiB
)

// Validator checks upload form fields before they reach the usecase layer.
// Kept as an interface at the HTTP edge so the core package never imports
// net/http or multipart form concerns.
type Validator interface {
	ValidateUpload(title, description string, tags []string, filename string, size int64) error
}

// uploadValidationError carries the stable error code the handler maps to
// an HTTP status, plus a human-readable message.
type uploadValidationError struct {
	code    string
	message string
}

func (e *uploadValidationError) Error() string { return e.message }

type defaultValidator struct{}

// NewDefaultValidator returns the Validator used by the video upload handler.
func NewDefaultValidator() Validator { return defaultValidator{} }

func (defaultValidator) ValidateUpload(title, description string, tags []string, filename string, size int64) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return &uploadValidationError{"TITLE_REQUIRED", "title is required"}
	}
	if len(title) > maxUploadTitleLength {
		return &uploadValidationError{"TITLE_TOO_LONG", fmt.Sprintf("title exceeds %d characters", maxUploadTitleLength)}
	}
	if len(tags) > maxUploadTags {
		return &uploadValidationError{"TOO_MANY_TAGS", fmt.Sprintf("at most %d tags are allowed", maxUploadTags)}
	}
	for _, tag := range tags {
		if len(tag) > maxUploadTagLength {
			return &uploadValidationError{"INVALID_TAG", fmt.Sprintf("tag %q exceeds %d characters", tag, maxUploadTagLength)}
		}
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedVideoExtensions[ext] {
		return &uploadValidationError{"INVALID_FILE_FORMAT", fmt.Sprintf("file extension %q is not supported", ext)}
	}
	if size > maxUploadFileSize {
		return &uploadValidationError{"FILE_TOO_LARGE", fmt.Sprintf("file exceeds %d bytes", maxUploadFileSize)}
	}
	return nil
}
