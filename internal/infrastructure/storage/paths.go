package storage

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/streamforge/streamforge/internal/domain/model"
)

// RawUploadKey returns the storage key for a video's original upload.
func RawUploadKey(videoID uuid.UUID, extension string) string {
	return fmt.Sprintf("uploads/raw/%s%s", videoID, extension)
}

// HLSOutputPrefix returns the common prefix under which all renditions for a
// video are stored, e.g. "hls/{videoId}".
func HLSOutputPrefix(videoID uuid.UUID) string {
	return fmt.Sprintf("hls/%s", videoID)
}

// VariantPlaylistKey returns the storage key for one rendition's playlist.
func VariantPlaylistKey(videoID uuid.UUID, res model.Resolution) string {
	return fmt.Sprintf("%s/%s/playlist.m3u8", HLSOutputPrefix(videoID), res)
}

// SegmentDir returns the storage key prefix for one rendition's TS segments.
func SegmentDir(videoID uuid.UUID, res model.Resolution) string {
	return fmt.Sprintf("%s/%s", HLSOutputPrefix(videoID), res)
}

// SegmentKey returns the storage key for the nth segment of one rendition.
func SegmentKey(videoID uuid.UUID, res model.Resolution, index int) string {
	return fmt.Sprintf("%s/segment_%03d.ts", SegmentDir(videoID, res), index)
}

// MasterPlaylistKey returns the storage key for a video's master playlist.
func MasterPlaylistKey(videoID uuid.UUID) string {
	return fmt.Sprintf("%s/master.m3u8", HLSOutputPrefix(videoID))
}

// ThumbnailKey returns the storage key for a video's generated thumbnail.
func ThumbnailKey(videoID uuid.UUID) string {
	return fmt.Sprintf("thumbnails/%s/thumbnail.jpg", videoID)
}
