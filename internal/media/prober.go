// Package media probes source video files for the metadata the transcoder
// needs to plan a rendition ladder.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	ffprobe "gopkg.in/vansante/go-ffprobe.v2"

	"github.com/streamforge/streamforge/internal/domain/repository"
)

// unsupportedVideoCodecs are codecs ffprobe may report on a video stream
// that the transcoder cannot usefully ingest.
var unsupportedVideoCodecs = []string{"mjpeg", "jpeg", "png"}

// Prober implements repository.MediaProber using ffprobe. Probe retries
// transient probe failures with exponential backoff; ProbeReader makes a
// single attempt.
type Prober struct {
	probeTimeout time.Duration
	maxRetries   uint64
}

// Compile-time verification that Prober implements repository.MediaProber.
var _ repository.MediaProber = (*Prober)(nil)

// NewProber creates a ffprobe-backed MediaProber with sensible defaults.
func NewProber() *Prober {
	return &Prober{
		probeTimeout: 60 * time.Second,
		maxRetries:   3,
	}
}

// Probe inspects a local file path.
func (p *Prober) Probe(ctx context.Context, path string) (repository.MediaMetadata, error) {
	var data *ffprobe.ProbeData
	operation := func() error {
		probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
		defer cancel()
		var err error
		data, err = ffprobe.ProbeURL(probeCtx, path, "-loglevel", "error")
		return err
	}

	if err := p.retry(operation); err != nil {
		return repository.MediaMetadata{}, fmt.Errorf("%w: %v", repository.ErrSourceUnreadable, err)
	}

	return parseProbeData(data)
}

// ProbeReader inspects an arbitrary stream.
func (p *Prober) ProbeReader(ctx context.Context, r io.Reader) (repository.MediaMetadata, error) {
	probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	data, err := ffprobe.ProbeReader(probeCtx, r, "-loglevel", "error")
	if err != nil {
		return repository.MediaMetadata{}, fmt.Errorf("%w: %v", repository.ErrSourceUnreadable, err)
	}

	return parseProbeData(data)
}

func (p *Prober) retry(operation func() error) error {
	backOff := backoff.NewExponentialBackOff()
	backOff.InitialInterval = 500 * time.Millisecond
	backOff.MaxInterval = 2 * time.Second
	backOff.MaxElapsedTime = 0
	return backoff.Retry(operation, backoff.WithMaxRetries(backOff, p.maxRetries))
}

func parseProbeData(data *ffprobe.ProbeData) (repository.MediaMetadata, error) {
	videoStream := data.FirstVideoStream()
	if videoStream == nil {
		return repository.MediaMetadata{}, repository.ErrNoVideoStream
	}

	for _, codec := range unsupportedVideoCodecs {
		if strings.EqualFold(videoStream.CodecName, codec) {
			return repository.MediaMetadata{}, fmt.Errorf("%w: unsupported codec %s", repository.ErrInvalidMetadata, videoStream.CodecName)
		}
	}

	if data.Format == nil {
		return repository.MediaMetadata{}, fmt.Errorf("%w: format information missing", repository.ErrInvalidMetadata)
	}

	bitrate, err := parseBitrate(videoStream.BitRate, data.Format.BitRate)
	if err != nil {
		return repository.MediaMetadata{}, fmt.Errorf("%w: %v", repository.ErrInvalidMetadata, err)
	}

	fps, err := parseFps(videoStream.AvgFrameRate)
	if err != nil {
		return repository.MediaMetadata{}, fmt.Errorf("%w: %v", repository.ErrInvalidMetadata, err)
	}
	if fps == 0 {
		fps, err = parseFps(videoStream.RFrameRate)
		if err != nil {
			return repository.MediaMetadata{}, fmt.Errorf("%w: %v", repository.ErrInvalidMetadata, err)
		}
	}

	duration, err := strconv.ParseFloat(videoStream.Duration, 64)
	if err != nil {
		duration = data.Format.DurationSeconds
	}

	return repository.MediaMetadata{
		DurationSec: duration,
		Width:       int(videoStream.Width),
		Height:      int(videoStream.Height),
		BitrateKbps: int(bitrate / 1000),
		FPS:         fps,
		Codec:       videoStream.CodecName,
		AspectRatio: videoStream.DisplayAspectRatio,
	}, nil
}

// parseBitrate prefers the stream-level bitrate, falling back to the
// container's overall bitrate when ffprobe didn't report one per-stream.
func parseBitrate(streamBitrate, formatBitrate string) (int64, error) {
	value := streamBitrate
	if value == "" {
		value = formatBitrate
	}
	if value == "" {
		return 0, nil
	}
	return strconv.ParseInt(value, 10, 64)
}

// parseFps parses ffprobe's "num/den" framerate representation.
func parseFps(framerate string) (float64, error) {
	if framerate == "" {
		return 0, nil
	}
	parts := strings.SplitN(framerate, "/", 2)
	if len(parts) < 2 {
		fps, err := strconv.ParseFloat(framerate, 64)
		if err != nil {
			return 0, fmt.Errorf("error parsing framerate: %w", err)
		}
		return fps, nil
	}

	num, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("error parsing framerate numerator: %w", err)
	}
	den, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("error parsing framerate denominator: %w", err)
	}

	if den == 0 {
		if num == 0 {
			return 0, nil
		}
		return 0, errors.New("invalid framerate denominator 0")
	}

	return float64(num) / float64(den), nil
}
