package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/streamforge/streamforge/internal/domain/model"
	"github.com/streamforge/streamforge/internal/infrastructure/metrics"
)

const cacheTypeRedis = "redis"

const (
	// videoCacheKeyPrefix is the prefix for video cache keys in Redis.
	videoCacheKeyPrefix = "video:"
)

// videoJSON is the JSON representation of a Video for caching.
// Using an explicit struct avoids coupling the cache wire format to the
// domain model's own JSON tags.
type videoJSON struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Tags            []string `json:"tags"`
	OriginalName    string   `json:"original_name"`
	Extension       string   `json:"extension"`
	FileSize        int64    `json:"file_size"`
	MimeType        string   `json:"mime_type"`
	UploadPath      string   `json:"upload_path"`
	DurationSeconds *int     `json:"duration_seconds,omitempty"`
	ThumbnailPath   *string  `json:"thumbnail_path,omitempty"`
	Status          string   `json:"status"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	ProcessedAt     *string  `json:"processed_at,omitempty"`
}

// RedisVideoCache implements VideoCache using Redis as the backing store.
type RedisVideoCache struct {
	client *redis.Client
}

// NewRedisVideoCache creates a new Redis-backed video cache.
func NewRedisVideoCache(client *redis.Client) *RedisVideoCache {
	return &RedisVideoCache{
		client: client,
	}
}

// Get retrieves a video from Redis cache.
// Returns nil, nil on cache miss.
func (c *RedisVideoCache) Get(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	key := c.buildKey(videoID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheOperationsTotal.WithLabelValues("get", "miss", cacheTypeRedis).Inc()
			return nil, nil // Cache miss
		}
		metrics.CacheOperationsTotal.WithLabelValues("get", "error", cacheTypeRedis).Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	video, err := c.deserialize(data)
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues("get", "error", cacheTypeRedis).Inc()
		return nil, fmt.Errorf("deserialize video: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues("get", "hit", cacheTypeRedis).Inc()
	return video, nil
}

// Set stores a video in Redis cache with the specified TTL.
func (c *RedisVideoCache) Set(ctx context.Context, video *model.Video, ttl time.Duration) error {
	key := c.buildKey(video.ID)

	data, err := c.serialize(video)
	if err != nil {
		return fmt.Errorf("serialize video: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues("set", "error", cacheTypeRedis).Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues("set", "success", cacheTypeRedis).Inc()
	return nil
}

// Delete removes a video from Redis cache.
func (c *RedisVideoCache) Delete(ctx context.Context, videoID uuid.UUID) error {
	key := c.buildKey(videoID)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues("delete", "error", cacheTypeRedis).Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues("delete", "success", cacheTypeRedis).Inc()
	return nil
}

// buildKey constructs the Redis key for a video.
func (c *RedisVideoCache) buildKey(videoID uuid.UUID) string {
	return videoCacheKeyPrefix + videoID.String()
}

// serialize converts a Video to JSON bytes.
func (c *RedisVideoCache) serialize(video *model.Video) ([]byte, error) {
	v := videoJSON{
		ID:              video.ID.String(),
		Title:           video.Title,
		Description:     video.Description,
		Tags:            video.Tags,
		OriginalName:    video.OriginalName,
		Extension:       video.Extension,
		FileSize:        video.FileSize,
		MimeType:        video.MimeType,
		UploadPath:      video.UploadPath,
		DurationSeconds: video.DurationSeconds,
		ThumbnailPath:   video.ThumbnailPath,
		Status:          string(video.Status),
		CreatedAt:       video.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:       video.UpdatedAt.Format(time.RFC3339Nano),
	}
	if video.ProcessedAt != nil {
		s := video.ProcessedAt.Format(time.RFC3339Nano)
		v.ProcessedAt = &s
	}
	return json.Marshal(v)
}

// deserialize converts JSON bytes to a Video.
func (c *RedisVideoCache) deserialize(data []byte) (*model.Video, error) {
	var v videoJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(v.ID)
	if err != nil {
		return nil, fmt.Errorf("parse video ID: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, v.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	var processedAt *time.Time
	if v.ProcessedAt != nil {
		t, err := time.Parse(time.RFC3339Nano, *v.ProcessedAt)
		if err != nil {
			return nil, fmt.Errorf("parse processed_at: %w", err)
		}
		processedAt = &t
	}

	return &model.Video{
		ID:              id,
		Title:           v.Title,
		Description:     v.Description,
		Tags:            v.Tags,
		OriginalName:    v.OriginalName,
		Extension:       v.Extension,
		FileSize:        v.FileSize,
		MimeType:        v.MimeType,
		UploadPath:      v.UploadPath,
		DurationSeconds: v.DurationSeconds,
		ThumbnailPath:   v.ThumbnailPath,
		Status:          model.Status(v.Status),
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
		ProcessedAt:     processedAt,
	}, nil
}
