// Package transcoder drives FFmpeg to produce an adaptive-bitrate HLS ladder
// and a thumbnail for a source video, uploading results to object storage.
package transcoder

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/grafov/m3u8"

	"github.com/streamforge/streamforge/internal/domain/repository"
	"github.com/streamforge/streamforge/internal/infrastructure/storage"
)

const (
	segmentDuration = 10 // seconds, per the fixed HLS ladder
)

// FFmpegConfig holds configuration for the FFmpeg transcoder.
type FFmpegConfig struct {
	// FFmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg" (PATH lookup).
	FFmpegPath string

	// Preset controls the encoding speed/quality tradeoff.
	Preset string
}

// DefaultFFmpegConfig returns an FFmpegConfig with production-ready defaults.
func DefaultFFmpegConfig() FFmpegConfig {
	return FFmpegConfig{
		FFmpegPath: "ffmpeg",
		Preset:     "fast",
	}
}

// FFmpegTranscoder implements repository.Transcoder by shelling out to
// FFmpeg per rendition and uploading results through an ObjectStorage.
type FFmpegTranscoder struct {
	config  FFmpegConfig
	storage repository.ObjectStorage
	prober  repository.MediaProber
}

// Compile-time verification that FFmpegTranscoder implements repository.Transcoder.
var _ repository.Transcoder = (*FFmpegTranscoder)(nil)

// NewFFmpegTranscoder creates a new FFmpeg-based transcoder.
func NewFFmpegTranscoder(cfg FFmpegConfig, storage repository.ObjectStorage, prober repository.MediaProber) *FFmpegTranscoder {
	return &FFmpegTranscoder{config: cfg, storage: storage, prober: prober}
}

// TranscodeToHLS implements the algorithm: localize source, filter the
// ladder against source height, encode each surviving rendition, upload it,
// and compose a master playlist over whatever survived.
func (t *FFmpegTranscoder) TranscodeToHLS(ctx context.Context, req repository.TranscodeRequest) ([]repository.TranscodeOutput, string, error) {
	tempDir, err := os.MkdirTemp("", "transcode-"+req.VideoID.String())
	if err != nil {
		return nil, "", fmt.Errorf("failed to create temp workspace: %w", err)
	}
	defer os.RemoveAll(tempDir)

	localInput := filepath.Join(tempDir, "source"+filepath.Ext(req.InputPath))
	if err := t.localize(ctx, req.InputPath, localInput); err != nil {
		return nil, "", fmt.Errorf("failed to localize source: %w", err)
	}

	metadata := req.Metadata
	if metadata == nil {
		probed, err := t.prober.Probe(ctx, localInput)
		if err != nil {
			return nil, "", fmt.Errorf("failed to probe source: %w", err)
		}
		metadata = &probed
	}

	rungs := filterLadder(req.RequestedResolutions, metadata.Height)
	if len(rungs) == 0 {
		return nil, "", repository.ErrAllRenditionsFailed
	}

	var outputs []repository.TranscodeOutput
	n := len(rungs)
	for i, r := range rungs {
		variantDir := filepath.Join(tempDir, string(r.Resolution))
		if err := os.MkdirAll(variantDir, 0o755); err != nil {
			slog.Warn("skipping rendition: failed to create variant workspace",
				"video_id", req.VideoID, "resolution", r.Resolution, "error", err)
			continue
		}

		segments, playlist, err := t.encodeRung(ctx, localInput, variantDir, r, metadata.DurationSec, i, n, req.OnProgress)
		if err != nil {
			// partial failure policy: skip this rendition, keep going
			slog.Warn("skipping rendition: encode failed",
				"video_id", req.VideoID, "resolution", r.Resolution, "error", err)
			continue
		}

		output, err := t.uploadRendition(ctx, req.VideoID, r, variantDir, playlist, segments)
		if err != nil {
			slog.Warn("skipping rendition: upload failed",
				"video_id", req.VideoID, "resolution", r.Resolution, "error", err)
			continue
		}
		outputs = append(outputs, output)
	}

	if len(outputs) == 0 {
		return nil, "", repository.ErrAllRenditionsFailed
	}

	masterPath, err := t.buildAndUploadMaster(ctx, req.VideoID, outputs)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build master playlist: %w", err)
	}

	return outputs, masterPath, nil
}

// localize copies the source blob from storage into a local temp file so
// FFmpeg can operate on a plain path regardless of storage backend.
func (t *FFmpegTranscoder) localize(ctx context.Context, key, dest string) error {
	src, err := t.storage.Download(ctx, key)
	if err != nil {
		return err
	}
	defer src.Close()

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, src)
	return err
}

// encodeRung runs one FFmpeg invocation for a single rendition, reporting
// combined ladder-wide progress via onProgress, and returns the sorted
// segment paths plus the playlist path, all local to variantDir.
func (t *FFmpegTranscoder) encodeRung(ctx context.Context, inputPath, variantDir string, r rung, durationSec float64, index, total int, onProgress repository.ProgressFunc) ([]string, string, error) {
	playlistPath := filepath.Join(variantDir, "playlist.m3u8")
	segmentPattern := filepath.Join(variantDir, "segment_%03d.ts")

	args := t.buildArgs(inputPath, playlistPath, segmentPattern, r)

	cmd := exec.CommandContext(ctx, t.config.FFmpegPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, "", fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, "", fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	lastReported := -1
	monitorProgress(stdout, durationSec, func(inner int) {
		overall := int(((float64(index) + float64(inner)/100) / float64(total)) * 100)
		if overall != lastReported {
			lastReported = overall
			if onProgress != nil {
				onProgress(r.Resolution, overall)
			}
		}
	})

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, "", fmt.Errorf("transcoding cancelled: %w", ctx.Err())
		}
		return nil, "", fmt.Errorf("ffmpeg execution failed for %s: %w: %s", r.Resolution, err, lastLines(stderr.String(), 20))
	}

	segments, err := collectSegments(variantDir)
	if err != nil {
		return nil, "", err
	}

	return segments, playlistPath, nil
}

// buildArgs constructs the FFmpeg command line for one rendition, per the
// fixed encoding profile: H.264/AAC, 10s HLS segments, never-upscale scale
// filter, and capped bitrate headroom.
func (t *FFmpegTranscoder) buildArgs(inputPath, playlistPath, segmentPattern string, r rung) []string {
	scaleFilter := fmt.Sprintf("scale=-2:%d:force_original_aspect_ratio=decrease", r.Height)
	maxrate := int(float64(r.BitrateKbps) * 1.2)
	bufsize := r.BitrateKbps * 2

	return []string{
		"-i", inputPath,
		"-hide_banner",
		"-progress", "pipe:1",
		"-vf", scaleFilter,
		"-pix_fmt", "yuv420p",
		"-c:v", "libx264",
		"-profile:v", "main",
		"-level", "3.1",
		"-preset", t.config.Preset,
		"-b:v", fmt.Sprintf("%dk", r.BitrateKbps),
		"-maxrate", fmt.Sprintf("%dk", maxrate),
		"-bufsize", fmt.Sprintf("%dk", bufsize),
		"-c:a", "aac",
		"-b:a", "128k",
		"-ac", "2",
		"-ar", "44100",
		"-f", "hls",
		"-hls_time", strconv.Itoa(segmentDuration),
		"-hls_list_size", "0",
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", segmentPattern,
		"-y",
		playlistPath,
	}
}

// monitorProgress reads FFmpeg's "-progress pipe:1" key=value stream and
// invokes report with the percentage complete, derived from out_time.
func monitorProgress(stdout io.Reader, durationSec float64, report func(percent int)) {
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "out_time=") {
			continue
		}
		current := parseFFmpegTimecode(strings.TrimPrefix(line, "out_time="))
		if durationSec <= 0 {
			continue
		}
		percent := int((current / durationSec) * 100)
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		report(percent)
	}
}

// parseFFmpegTimecode parses FFmpeg's "HH:MM:SS.ffffff" timecode into seconds.
func parseFFmpegTimecode(s string) float64 {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0
	}
	hours, _ := strconv.Atoi(parts[0])
	minutes, _ := strconv.Atoi(parts[1])
	seconds, _ := strconv.ParseFloat(parts[2], 64)
	return float64(hours)*3600 + float64(minutes)*60 + seconds
}

// lastLines returns the last n non-empty lines of s, for trimming ffmpeg's
// often-verbose stderr down to the part that actually explains a failure.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// collectSegments finds all generated .ts segment files, sorted lexicographically.
func collectSegments(variantDir string) ([]string, error) {
	entries, err := os.ReadDir(variantDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read variant directory: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".ts") {
			continue
		}
		segments = append(segments, filepath.Join(variantDir, entry.Name()))
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments generated")
	}

	sort.Strings(segments)
	return segments, nil
}

// uploadRendition uploads one rendition's playlist and segments from the
// local temp workspace to storage, returning the output descriptor with
// storage-relative keys.
func (t *FFmpegTranscoder) uploadRendition(ctx context.Context, videoID uuid.UUID, r rung, variantDir, localPlaylist string, localSegments []string) (repository.TranscodeOutput, error) {
	variantDirKey := storage.SegmentDir(videoID, r.Resolution)

	var totalSize int64
	segmentKeys := make([]string, 0, len(localSegments))
	for _, local := range localSegments {
		key := fmt.Sprintf("%s/%s", variantDirKey, filepath.Base(local))
		size, err := t.uploadFile(ctx, local, key, "video/mp2t")
		if err != nil {
			return repository.TranscodeOutput{}, err
		}
		totalSize += size
		segmentKeys = append(segmentKeys, key)
	}

	playlistKey := storage.VariantPlaylistKey(videoID, r.Resolution)
	playlistSize, err := t.uploadFile(ctx, localPlaylist, playlistKey, "application/vnd.apple.mpegurl")
	if err != nil {
		return repository.TranscodeOutput{}, err
	}
	totalSize += playlistSize

	sort.Strings(segmentKeys)

	return repository.TranscodeOutput{
		Resolution:   r.Resolution,
		Width:        r.Width,
		Height:       r.Height,
		BitrateKbps:  r.BitrateKbps,
		PlaylistPath: playlistKey,
		SegmentPaths: segmentKeys,
		FileSize:     totalSize,
		SegmentCount: len(segmentKeys),
	}, nil
}

func (t *FFmpegTranscoder) uploadFile(ctx context.Context, localPath, key, contentType string) (int64, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", localPath, err)
	}

	if err := t.storage.Upload(ctx, key, f, contentType); err != nil {
		return 0, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return info.Size(), nil
}

// buildAndUploadMaster composes a master playlist over the successful
// outputs, sorted by descending height, and uploads it to storage.
func (t *FFmpegTranscoder) buildAndUploadMaster(ctx context.Context, videoID uuid.UUID, outputs []repository.TranscodeOutput) (string, error) {
	sorted := make([]repository.TranscodeOutput, len(outputs))
	copy(sorted, outputs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Height > sorted[j].Height
	})

	master := m3u8.NewMasterPlaylist()
	for _, o := range sorted {
		uri := fmt.Sprintf("%s/playlist.m3u8", o.Resolution)
		err := master.Append(uri, &m3u8.MediaPlaylist{}, m3u8.VariantParams{
			Bandwidth:  uint32(o.BitrateKbps * 1000),
			Resolution: fmt.Sprintf("%dx%d", o.Width, o.Height),
		})
		if err != nil {
			return "", fmt.Errorf("failed to append variant %s: %w", o.Resolution, err)
		}
	}

	masterKey := storage.MasterPlaylistKey(videoID)
	if err := t.storage.Upload(ctx, masterKey, strings.NewReader(master.String()), "application/vnd.apple.mpegurl"); err != nil {
		return "", fmt.Errorf("failed to upload master playlist: %w", err)
	}

	return masterKey, nil
}

// GenerateThumbnail extracts a single frame from the source, scaled and
// letterboxed to 320x240, and uploads it to thumbnailPath.
func (t *FFmpegTranscoder) GenerateThumbnail(ctx context.Context, inputPath, thumbnailPath string, durationSec float64) error {
	tempDir, err := os.MkdirTemp("", "thumbnail-")
	if err != nil {
		return fmt.Errorf("failed to create temp workspace: %w", err)
	}
	defer os.RemoveAll(tempDir)

	localInput := filepath.Join(tempDir, "source"+filepath.Ext(inputPath))
	if err := t.localize(ctx, inputPath, localInput); err != nil {
		return fmt.Errorf("failed to localize source: %w", err)
	}

	seekSec := durationSec / 2
	if seekSec > 10 {
		seekSec = 10
	}

	localThumb := filepath.Join(tempDir, "thumbnail.jpg")
	args := []string{
		"-ss", strconv.FormatFloat(seekSec, 'f', 3, 64),
		"-i", localInput,
		"-frames:v", "1",
		"-vf", "scale=320:240:force_original_aspect_ratio=decrease,pad=320:240:(ow-iw)/2:(oh-ih)/2",
		"-q:v", "2",
		"-y",
		localThumb,
	}

	cmd := exec.CommandContext(ctx, t.config.FFmpegPath, args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("thumbnail generation cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("ffmpeg thumbnail extraction failed: %w", err)
	}

	if _, err := t.uploadFile(ctx, localThumb, thumbnailPath, "image/jpeg"); err != nil {
		return err
	}

	return nil
}
