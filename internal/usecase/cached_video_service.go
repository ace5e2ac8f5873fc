package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/streamforge/streamforge/internal/domain/model"
	"github.com/streamforge/streamforge/internal/domain/repository"
	"github.com/streamforge/streamforge/internal/infrastructure/cache"
	"github.com/streamforge/streamforge/internal/infrastructure/metrics"
	"golang.org/x/sync/singleflight"
)

// CachedVideoServiceConfig holds configuration for cachedVideoService.
type CachedVideoServiceConfig struct {
	// CacheTTL is the TTL for cached video metadata.
	CacheTTL time.Duration
}

// DefaultCachedVideoServiceConfig returns the default configuration.
func DefaultCachedVideoServiceConfig() CachedVideoServiceConfig {
	return CachedVideoServiceConfig{CacheTTL: 5 * time.Minute}
}

// cachedVideoService wraps VideoService with a cache-aside read path.
// It implements the decorator pattern to add caching without modifying the
// underlying service.
type cachedVideoService struct {
	delegate VideoService
	cache    cache.VideoCache
	sfGroup  singleflight.Group

	cacheTTL time.Duration
}

// NewCachedVideoService creates a new VideoService wrapping delegate with caching.
func NewCachedVideoService(delegate VideoService, videoCache cache.VideoCache, cfg CachedVideoServiceConfig) VideoService {
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = DefaultCachedVideoServiceConfig().CacheTTL
	}
	return &cachedVideoService{delegate: delegate, cache: videoCache, cacheTTL: cacheTTL}
}

// CreateVideo delegates directly; there is nothing to cache on creation.
func (s *cachedVideoService) CreateVideo(ctx context.Context, input CreateVideoInput) (*model.Video, error) {
	return s.delegate.CreateVideo(ctx, input)
}

// GetVideo retrieves video information with caching, coalescing concurrent
// requests for the same video through singleflight to avoid a cache stampede.
func (s *cachedVideoService) GetVideo(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	key := videoID.String()
	result, err, shared := s.sfGroup.Do(key, func() (any, error) {
		return s.getVideoWithCache(ctx, videoID)
	})

	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		return nil, err
	}
	return result.(*model.Video), nil
}

func (s *cachedVideoService) getVideoWithCache(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	video, err := s.cache.Get(ctx, videoID)
	if err != nil {
		slog.Warn("cache get failed, falling back to database", "video_id", videoID, "error", err)
	}
	if video != nil {
		return video, nil
	}

	video, err = s.delegate.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, video, s.cacheTTL); err != nil {
		slog.Warn("failed to cache video", "video_id", videoID, "error", err)
	}
	return video, nil
}

// ListVideos bypasses the cache: list filters vary too widely to key
// effectively, and list reads are already paginated and DB-indexed.
func (s *cachedVideoService) ListVideos(ctx context.Context, filter repository.VideoListFilter) ([]*model.Video, int, error) {
	return s.delegate.ListVideos(ctx, filter)
}

// DeleteVideo invalidates the cache, then delegates. A GetVideo that runs
// between the two steps can still repopulate the cache from the
// not-yet-deleted row; that entry lives until its TTL expires.
func (s *cachedVideoService) DeleteVideo(ctx context.Context, videoID uuid.UUID) error {
	if err := s.cache.Delete(ctx, videoID); err != nil {
		slog.Warn("failed to invalidate cache before delete", "video_id", videoID, "error", err)
	}
	return s.delegate.DeleteVideo(ctx, videoID)
}

var _ VideoService = (*cachedVideoService)(nil)
