package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/streamforge/streamforge/internal/domain/model"
	"github.com/streamforge/streamforge/internal/domain/repository"
	"github.com/streamforge/streamforge/internal/infrastructure/storage"
	"github.com/streamforge/streamforge/internal/usecase"
)

const maxUploadMemory = 32 << 20 // buffer up to 32MiB of multipart form in memory; larger files spill to temp files

// VideoResponse is the JSON representation of a Video returned by every
// video-metadata endpoint.
type VideoResponse struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Tags            []string `json:"tags"`
	OriginalName    string   `json:"originalName"`
	FileSize        int64    `json:"fileSize"`
	MimeType        string   `json:"mimeType"`
	DurationSeconds *int     `json:"durationSeconds,omitempty"`
	Status          string   `json:"status"`
	CreatedAt       string   `json:"createdAt"`
	UpdatedAt       string   `json:"updatedAt"`
	ProcessedAt     *string  `json:"processedAt,omitempty"`
}

// CreateVideoResponse is returned from a successful upload: the persisted
// video plus the job created to transcode it.
type CreateVideoResponse struct {
	Video VideoResponse `json:"video"`
	JobID string        `json:"jobId"`
}

// ListVideosResponse paginates VideoResponse.
type ListVideosResponse struct {
	Videos []VideoResponse `json:"videos"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

// VideoStatusResponse reports transcoding progress for a video.
type VideoStatusResponse struct {
	VideoID              string   `json:"videoId"`
	Status               string   `json:"status"`
	ProgressPercentage   int      `json:"progressPercentage"`
	CurrentResolution    string   `json:"currentResolution,omitempty"`
	CompletedResolutions []string `json:"completedResolutions"`
	AttemptCount         int      `json:"attemptCount"`
	MaxAttempts          int      `json:"maxAttempts"`
	ErrorMessage         string   `json:"errorMessage,omitempty"`
}

// VideoHandler serves video upload, listing, detail, status, and deletion.
type VideoHandler struct {
	videos    usecase.VideoService
	producer  usecase.Producer
	jobs      repository.JobRepository
	storage   repository.ObjectStorage
	validator Validator
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(videos usecase.VideoService, producer usecase.Producer, jobs repository.JobRepository, storage repository.ObjectStorage, validator Validator) *VideoHandler {
	if validator == nil {
		validator = NewDefaultValidator()
	}
	return &VideoHandler{videos: videos, producer: producer, jobs: jobs, storage: storage, validator: validator}
}

// Upload handles POST /api/v1/videos/upload: multipart file + title +
// description? + tags?. Persists the source blob, registers the video in
// PENDING status, and submits a transcoding job for the default ladder.
func (h *VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		Error(w, http.StatusBadRequest, "FILE_REQUIRED", "request is not a valid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		Error(w, http.StatusBadRequest, "FILE_REQUIRED", "file is required")
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	description := r.FormValue("description")
	tags := splitTags(r.FormValue("tags"))

	if err := h.validator.ValidateUpload(title, description, tags, header.Filename, header.Size); err != nil {
		var ve *uploadValidationError
		if errors.As(err, &ve) {
			status := http.StatusBadRequest
			if ve.code == "FILE_TOO_LARGE" {
				status = http.StatusRequestEntityTooLarge
			} else if ve.code == "INVALID_FILE_FORMAT" {
				status = http.StatusUnsupportedMediaType
			}
			Error(w, status, ve.code, ve.message)
			return
		}
		Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	videoID := uuid.New()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	uploadPath := storage.RawUploadKey(videoID, ext)

	if err := h.storage.Upload(r.Context(), uploadPath, file, header.Header.Get("Content-Type")); err != nil {
		Error(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "failed to store uploaded file")
		return
	}

	video, err := h.videos.CreateVideo(r.Context(), usecase.CreateVideoInput{
		ID:           videoID,
		Title:        title,
		Description:  description,
		Tags:         tags,
		OriginalName: header.Filename,
		Extension:    ext,
		FileSize:     header.Size,
		MimeType:     header.Header.Get("Content-Type"),
		UploadPath:   uploadPath,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	job, err := h.producer.SubmitTranscode(r.Context(), usecase.SubmitTranscodeInput{
		VideoID:   video.ID,
		InputPath: uploadPath,
	})
	if err != nil && !errors.Is(err, repository.ErrJobAlreadyQueued) {
		Error(w, http.StatusInternalServerError, "QUEUE_UNAVAILABLE", "video was registered but could not be queued for transcoding")
		return
	}

	JSON(w, http.StatusCreated, CreateVideoResponse{
		Video: toVideoResponse(video),
		JobID: job.ID.String(),
	})
}

// List handles GET /api/v1/videos.
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	page := parsePositiveInt(r.URL.Query().Get("page"), 1)
	limit := parsePositiveInt(r.URL.Query().Get("limit"), 20)
	if limit > 100 {
		limit = 100
	}

	filter := repository.VideoListFilter{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = model.Status(strings.ToUpper(status))
	}

	videos, total, err := h.videos.ListVideos(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	responses := make([]VideoResponse, 0, len(videos))
	for _, v := range videos {
		responses = append(responses, toVideoResponse(v))
	}

	JSON(w, http.StatusOK, ListVideosResponse{Videos: responses, Total: total, Page: page, Limit: limit})
}

// Get handles GET /api/v1/videos/{id}.
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "INVALID_VIDEO_ID", "video id must be a valid UUID")
		return
	}

	video, err := h.videos.GetVideo(r.Context(), videoID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, toVideoResponse(video))
}

// Status handles GET /api/v1/videos/{id}/status.
func (h *VideoHandler) Status(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "INVALID_VIDEO_ID", "video id must be a valid UUID")
		return
	}

	if _, err := h.videos.GetVideo(r.Context(), videoID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	job, err := h.jobs.GetByVideoID(r.Context(), videoID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, VideoStatusResponse{
		VideoID:              videoID.String(),
		Status:                string(job.Status),
		ProgressPercentage:   job.ProgressPercentage,
		CurrentResolution:    job.Progress.CurrentResolution,
		CompletedResolutions: job.Progress.CompletedResolutions,
		AttemptCount:         job.AttemptCount,
		MaxAttempts:          job.MaxAttempts,
		ErrorMessage:         job.ErrorMessage,
	})
}

// Delete handles DELETE /api/v1/videos/{id}.
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "INVALID_VIDEO_ID", "video id must be a valid UUID")
		return
	}

	if err := h.videos.DeleteVideo(r.Context(), videoID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]string{"id": videoID.String()})
}

func (h *VideoHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrVideoNotFound):
		Error(w, http.StatusNotFound, "VIDEO_NOT_FOUND", "video not found")
	case errors.Is(err, repository.ErrJobNotFound):
		Error(w, http.StatusNotFound, "VIDEO_NOT_FOUND", "no transcoding job recorded for this video")
	case errors.Is(err, model.ErrEmptyTitle):
		Error(w, http.StatusBadRequest, "TITLE_REQUIRED", "title is required")
	case errors.Is(err, model.ErrTitleTooLong):
		Error(w, http.StatusBadRequest, "TITLE_TOO_LONG", "title exceeds maximum length")
	case errors.Is(err, model.ErrTooManyTags):
		Error(w, http.StatusBadRequest, "TOO_MANY_TAGS", "too many tags")
	case errors.Is(err, model.ErrTagTooLong):
		Error(w, http.StatusBadRequest, "INVALID_TAG", "tag exceeds maximum length")
	case errors.Is(err, repository.ErrStorageUnavailable):
		Error(w, http.StatusInternalServerError, "STORAGE_UNAVAILABLE", "storage backend is unavailable")
	case errors.Is(err, repository.ErrQueueUnavailable):
		Error(w, http.StatusInternalServerError, "QUEUE_UNAVAILABLE", "job queue is unavailable")
	default:
		Error(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "an unexpected error occurred")
	}
}

func toVideoResponse(v *model.Video) VideoResponse {
	resp := VideoResponse{
		ID:              v.ID.String(),
		Title:           v.Title,
		Description:     v.Description,
		Tags:            v.Tags,
		OriginalName:    v.OriginalName,
		FileSize:        v.FileSize,
		MimeType:        v.MimeType,
		DurationSeconds: v.DurationSeconds,
		Status:          string(v.Status),
		CreatedAt:       v.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:       v.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if v.ProcessedAt != nil {
		s := v.ProcessedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.ProcessedAt = &s
	}
	return resp
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
