package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/streamforge/streamforge/internal/domain/model"
	"github.com/streamforge/streamforge/internal/domain/repository"
	"github.com/streamforge/streamforge/internal/usecase"
)

// StreamHandler serves HLS master/variant playlists, segments, and
// thumbnails for READY videos.
type StreamHandler struct {
	streamer   usecase.Streamer
	corsOrigin string
}

// NewStreamHandler creates a new StreamHandler. corsOrigin is written as
// Access-Control-Allow-Origin on every streaming response.
func NewStreamHandler(streamer usecase.Streamer, corsOrigin string) *StreamHandler {
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	return &StreamHandler{streamer: streamer, corsOrigin: corsOrigin}
}

// MasterPlaylist handles GET /api/v1/stream/{id}/master.m3u8.
func (h *StreamHandler) MasterPlaylist(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "INVALID_VIDEO_ID", "video id must be a valid UUID")
		return
	}

	reader, err := h.streamer.GetMasterPlaylist(r.Context(), videoID)
	if err != nil {
		h.handleStreamError(w, err, "MASTER_PLAYLIST_NOT_FOUND")
		return
	}
	defer reader.Close()

	h.writeStream(w, reader, "application/vnd.apple.mpegurl", "public, max-age=300")
}

// VariantPlaylist handles GET /api/v1/stream/{id}/{resolution}/playlist.m3u8.
func (h *StreamHandler) VariantPlaylist(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "INVALID_VIDEO_ID", "video id must be a valid UUID")
		return
	}
	resolution := model.Resolution(chi.URLParam(r, "resolution"))

	reader, err := h.streamer.GetVariantPlaylist(r.Context(), videoID, resolution)
	if err != nil {
		h.handleStreamError(w, err, "PLAYLIST_NOT_FOUND")
		return
	}
	defer reader.Close()

	h.writeStream(w, reader, "application/vnd.apple.mpegurl", "public, max-age=300")
}

// Segment handles GET /api/v1/stream/{id}/{resolution}/{segment}.
func (h *StreamHandler) Segment(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "INVALID_VIDEO_ID", "video id must be a valid UUID")
		return
	}
	resolution := model.Resolution(chi.URLParam(r, "resolution"))
	segment := chi.URLParam(r, "segment")

	reader, err := h.streamer.GetSegment(r.Context(), videoID, resolution, segment)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidSegmentName) {
			h.setCORS(w)
			Error(w, http.StatusBadRequest, "INVALID_SEGMENT_NAME", "segment name is invalid")
			return
		}
		h.handleStreamError(w, err, "SEGMENT_NOT_FOUND")
		return
	}
	defer reader.Close()

	w.Header().Set("Accept-Ranges", "bytes")
	h.writeStream(w, reader, "video/mp2t", "public, max-age=31536000")
}

// Thumbnail handles GET /api/v1/videos/{id}/thumbnail.
func (h *StreamHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "INVALID_VIDEO_ID", "video id must be a valid UUID")
		return
	}

	reader, err := h.streamer.GetThumbnail(r.Context(), videoID)
	if err != nil {
		h.handleStreamError(w, err, "THUMBNAIL_NOT_FOUND")
		return
	}
	defer reader.Close()

	h.writeStream(w, reader, "image/jpeg", "public, max-age=86400")
}

func (h *StreamHandler) writeStream(w http.ResponseWriter, r io.Reader, contentType, cacheControl string) {
	h.setCORS(w)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", cacheControl)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, r)
}

func (h *StreamHandler) setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", h.corsOrigin)
	w.Header().Set("Access-Control-Allow-Headers", "Range")
}

func (h *StreamHandler) handleStreamError(w http.ResponseWriter, err error, notFoundCode string) {
	h.setCORS(w)
	switch {
	case errors.Is(err, repository.ErrVideoNotFound):
		Error(w, http.StatusNotFound, "VIDEO_NOT_FOUND", "video not found")
	case errors.Is(err, repository.ErrVideoNotReady):
		Error(w, http.StatusNotFound, "VIDEO_NOT_FOUND", "video is not ready for streaming")
	case errors.Is(err, repository.ErrOutputNotFound):
		Error(w, http.StatusNotFound, notFoundCode, "requested rendition is not available")
	case errors.Is(err, repository.ErrMasterPlaylistNotFound):
		Error(w, http.StatusNotFound, "MASTER_PLAYLIST_NOT_FOUND", "master playlist not found")
	case errors.Is(err, repository.ErrPlaylistNotFound):
		Error(w, http.StatusNotFound, "PLAYLIST_NOT_FOUND", "variant playlist not found")
	case errors.Is(err, repository.ErrSegmentNotFound):
		Error(w, http.StatusNotFound, "SEGMENT_NOT_FOUND", "segment not found")
	case errors.Is(err, repository.ErrThumbnailNotFound):
		Error(w, http.StatusNotFound, "THUMBNAIL_NOT_FOUND", "thumbnail not found")
	default:
		Error(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "an unexpected error occurred")
	}
}
