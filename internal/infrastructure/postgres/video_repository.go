package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/streamforge/streamforge/internal/domain/model"
	"github.com/streamforge/streamforge/internal/domain/repository"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// VideoRepository implements repository.VideoRepository using PostgreSQL.
type VideoRepository struct {
	db DBTX
}

// NewVideoRepository creates a new VideoRepository instance.
func NewVideoRepository(db DBTX) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create persists a new video entity.
func (r *VideoRepository) Create(ctx context.Context, video *model.Video) error {
	const query = `
		INSERT INTO videos (
			id, title, description, tags, original_name, extension, file_size,
			mime_type, upload_path, duration_seconds, thumbnail_path, status,
			created_at, updated_at, processed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Exec(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.Tags,
		video.OriginalName,
		video.Extension,
		video.FileSize,
		video.MimeType,
		video.UploadPath,
		video.DurationSeconds,
		video.ThumbnailPath,
		video.Status.String(),
		video.CreatedAt,
		video.UpdatedAt,
		video.ProcessedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrDuplicateVideo
		}
		return fmt.Errorf("failed to create video: %w", err)
	}

	return nil
}

// GetByID retrieves a video by its unique identifier.
func (r *VideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	const query = `
		SELECT id, title, description, tags, original_name, extension, file_size,
			mime_type, upload_path, duration_seconds, thumbnail_path, status,
			created_at, updated_at, processed_at
		FROM videos
		WHERE id = $1
	`

	video, err := scanVideo(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video by ID: %w", err)
	}

	return video, nil
}

// List returns videos matching filter, newest first, with total count ignoring pagination.
func (r *VideoRepository) List(ctx context.Context, filter repository.VideoListFilter) ([]*model.Video, int, error) {
	var (
		query strings.Builder
		args  []any
	)

	query.WriteString(`
		SELECT id, title, description, tags, original_name, extension, file_size,
			mime_type, upload_path, duration_seconds, thumbnail_path, status,
			created_at, updated_at, processed_at
		FROM videos
	`)
	if filter.Status != "" {
		args = append(args, filter.Status.String())
		query.WriteString(fmt.Sprintf(" WHERE status = $%d", len(args)))
	}
	query.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)
	query.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	args = append(args, filter.Offset)
	query.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))

	rows, err := r.db.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []*model.Video
	for rows.Next() {
		video, err := scanVideoFromRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating videos: %w", err)
	}

	total, err := r.countByStatus(ctx, filter.Status)
	if err != nil {
		return nil, 0, err
	}

	return videos, total, nil
}

func (r *VideoRepository) countByStatus(ctx context.Context, status model.Status) (int, error) {
	var (
		query strings.Builder
		args  []any
	)
	query.WriteString("SELECT count(*) FROM videos")
	if status != "" {
		args = append(args, status.String())
		query.WriteString(" WHERE status = $1")
	}

	var total int
	if err := r.db.QueryRow(ctx, query.String(), args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count videos: %w", err)
	}
	return total, nil
}

// Update persists changes to an existing video entity.
func (r *VideoRepository) Update(ctx context.Context, video *model.Video) error {
	const query = `
		UPDATE videos
		SET title = $2, description = $3, tags = $4, duration_seconds = $5,
			thumbnail_path = $6, status = $7, updated_at = $8, processed_at = $9
		WHERE id = $1
	`

	video.UpdatedAt = time.Now()

	tag, err := r.db.Exec(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.Tags,
		video.DurationSeconds,
		video.ThumbnailPath,
		video.Status.String(),
		video.UpdatedAt,
		video.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrVideoNotFound
	}

	return nil
}

// UpdateStatus updates only the status field of a video.
func (r *VideoRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error {
	const query = `
		UPDATE videos
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, status.String(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to update video status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrVideoNotFound
	}

	return nil
}

// Delete removes a video row.
func (r *VideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM videos WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrVideoNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanVideo scans a single row into a Video model.
func scanVideo(row rowScanner) (*model.Video, error) {
	return scanVideoFromRows(row)
}

// scanVideoFromRows scans from any Scan-capable source into a Video model.
func scanVideoFromRows(row rowScanner) (*model.Video, error) {
	var (
		video  model.Video
		status string
	)

	err := row.Scan(
		&video.ID,
		&video.Title,
		&video.Description,
		&video.Tags,
		&video.OriginalName,
		&video.Extension,
		&video.FileSize,
		&video.MimeType,
		&video.UploadPath,
		&video.DurationSeconds,
		&video.ThumbnailPath,
		&status,
		&video.CreatedAt,
		&video.UpdatedAt,
		&video.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}

	video.Status = model.Status(status)
	return &video, nil
}

// Compile-time verification that VideoRepository implements repository.VideoRepository.
var _ repository.VideoRepository = (*VideoRepository)(nil)
