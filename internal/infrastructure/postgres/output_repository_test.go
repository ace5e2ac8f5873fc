package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/streamforge/streamforge/internal/domain/model"
	"github.com/streamforge/streamforge/internal/domain/repository"
)

func TestOutputRepository_SaveAll(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer mock.Close()

	videoID := uuid.New()
	out, err := model.NewVideoOutput(videoID, model.Resolution720p, 1280, 720, 2500,
		"hls/x/720p/playlist.m3u8", "hls/x/720p", 1024, 10, 1080)
	if err != nil {
		t.Fatalf("NewVideoOutput() unexpected error = %v", err)
	}

	mock.ExpectExec("DELETE FROM video_outputs").
		WithArgs(videoID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO video_outputs").
		WithArgs(
			out.ID, out.VideoID, string(out.Resolution), out.Width, out.Height, out.BitrateKbps,
			out.PlaylistPath, out.SegmentDir, out.FileSize, out.SegmentCount, out.SegmentDuration,
			string(out.Status), out.CompletedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewOutputRepository(mock)
	if err := repo.SaveAll(context.Background(), videoID, []*model.VideoOutput{out}); err != nil {
		t.Errorf("SaveAll() unexpected error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestOutputRepository_GetByVideoIDAndResolution(t *testing.T) {
	videoID := uuid.New()
	now := time.Now()
	columns := []string{
		"id", "video_id", "resolution", "width", "height", "bitrate_kbps", "playlist_path",
		"segment_dir", "file_size", "segment_count", "segment_duration", "status", "completed_at",
	}

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		if err != nil {
			t.Fatalf("failed to create mock: %v", err)
		}
		defer mock.Close()

		rows := pgxmock.NewRows(columns).AddRow(
			uuid.New(), videoID, "720p", 1280, 720, 2500, "hls/x/720p/playlist.m3u8",
			"hls/x/720p", int64(1024), 10, 10.0, "READY", &now,
		)
		mock.ExpectQuery("SELECT .* FROM video_outputs").
			WithArgs(videoID, "720p").
			WillReturnRows(rows)

		repo := NewOutputRepository(mock)
		got, err := repo.GetByVideoIDAndResolution(context.Background(), videoID, model.Resolution720p)
		if err != nil {
			t.Fatalf("GetByVideoIDAndResolution() unexpected error = %v", err)
		}
		if got.Resolution != model.Resolution720p {
			t.Errorf("GetByVideoIDAndResolution() Resolution = %v, want 720p", got.Resolution)
		}
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		if err != nil {
			t.Fatalf("failed to create mock: %v", err)
		}
		defer mock.Close()

		mock.ExpectQuery("SELECT .* FROM video_outputs").
			WithArgs(videoID, "1080p").
			WillReturnError(pgx.ErrNoRows)

		repo := NewOutputRepository(mock)
		_, err = repo.GetByVideoIDAndResolution(context.Background(), videoID, model.Resolution1080p)
		if !errors.Is(err, repository.ErrOutputNotFound) {
			t.Errorf("GetByVideoIDAndResolution() error = %v, want ErrOutputNotFound", err)
		}
	})
}
