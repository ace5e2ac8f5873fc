package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/streamforge/streamforge/internal/domain/model"
	"github.com/streamforge/streamforge/internal/domain/repository"
)

// OutputRepository implements repository.OutputRepository using PostgreSQL.
type OutputRepository struct {
	db DBTX
}

// NewOutputRepository creates a new OutputRepository instance.
func NewOutputRepository(db DBTX) *OutputRepository {
	return &OutputRepository{db: db}
}

// SaveAll replaces the set of outputs for a video in a single transaction-like
// delete-then-insert. Callers on a pgx.Tx get full atomicity; callers on the
// pool accept a brief window where outputs may be momentarily absent.
func (r *OutputRepository) SaveAll(ctx context.Context, videoID uuid.UUID, outputs []*model.VideoOutput) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM video_outputs WHERE video_id = $1`, videoID); err != nil {
		return fmt.Errorf("failed to clear existing outputs: %w", err)
	}

	const query = `
		INSERT INTO video_outputs (
			id, video_id, resolution, width, height, bitrate_kbps, playlist_path,
			segment_dir, file_size, segment_count, segment_duration, status, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	for _, o := range outputs {
		_, err := r.db.Exec(ctx, query,
			o.ID, o.VideoID, string(o.Resolution), o.Width, o.Height, o.BitrateKbps,
			o.PlaylistPath, o.SegmentDir, o.FileSize, o.SegmentCount, o.SegmentDuration,
			string(o.Status), o.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert output %s: %w", o.Resolution, err)
		}
	}

	return nil
}

// ListByVideoID returns every rendition recorded for a video, ascending by height.
func (r *OutputRepository) ListByVideoID(ctx context.Context, videoID uuid.UUID) ([]*model.VideoOutput, error) {
	const query = `
		SELECT id, video_id, resolution, width, height, bitrate_kbps, playlist_path,
			segment_dir, file_size, segment_count, segment_duration, status, completed_at
		FROM video_outputs
		WHERE video_id = $1
		ORDER BY height ASC
	`

	rows, err := r.db.Query(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outputs: %w", err)
	}
	defer rows.Close()

	var outputs []*model.VideoOutput
	for rows.Next() {
		o, err := scanOutput(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan output: %w", err)
		}
		outputs = append(outputs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outputs: %w", err)
	}

	return outputs, nil
}

// GetByVideoIDAndResolution returns a single rendition, or ErrOutputNotFound.
func (r *OutputRepository) GetByVideoIDAndResolution(ctx context.Context, videoID uuid.UUID, res model.Resolution) (*model.VideoOutput, error) {
	const query = `
		SELECT id, video_id, resolution, width, height, bitrate_kbps, playlist_path,
			segment_dir, file_size, segment_count, segment_duration, status, completed_at
		FROM video_outputs
		WHERE video_id = $1 AND resolution = $2
	`

	o, err := scanOutput(r.db.QueryRow(ctx, query, videoID, string(res)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrOutputNotFound
		}
		return nil, fmt.Errorf("failed to get output: %w", err)
	}

	return o, nil
}

func scanOutput(row rowScanner) (*model.VideoOutput, error) {
	var (
		o          model.VideoOutput
		resolution string
		status     string
	)

	err := row.Scan(
		&o.ID, &o.VideoID, &resolution, &o.Width, &o.Height, &o.BitrateKbps,
		&o.PlaylistPath, &o.SegmentDir, &o.FileSize, &o.SegmentCount, &o.SegmentDuration,
		&status, &o.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Resolution = model.Resolution(resolution)
	o.Status = model.OutputStatus(status)
	return &o, nil
}

// Compile-time verification that OutputRepository implements repository.OutputRepository.
var _ repository.OutputRepository = (*OutputRepository)(nil)
