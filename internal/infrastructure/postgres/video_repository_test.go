package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/streamforge/streamforge/internal/domain/model"
	"github.com/streamforge/streamforge/internal/domain/repository"
)

func newTestVideoRow() *model.Video {
	v, err := model.NewVideo("Test Video", "", nil, "in.mp4", ".mp4", 1024, "video/mp4", "uploads/raw/x.mp4")
	if err != nil {
		panic(err)
	}
	return v
}

func TestVideoRepository_Create(t *testing.T) {
	tests := []struct {
		name    string
		video   *model.Video
		mockFn  func(mock pgxmock.PgxPoolIface, video *model.Video)
		wantErr error
	}{
		{
			name:  "successful creation",
			video: newTestVideoRow(),
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectExec("INSERT INTO videos").
					WithArgs(
						video.ID, video.Title, video.Description, video.Tags,
						video.OriginalName, video.Extension, video.FileSize,
						video.MimeType, video.UploadPath, video.DurationSeconds,
						video.ThumbnailPath, video.Status.String(),
						video.CreatedAt, video.UpdatedAt, video.ProcessedAt,
					).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
			wantErr: nil,
		},
		{
			name:  "duplicate video error",
			video: newTestVideoRow(),
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectExec("INSERT INTO videos").
					WithArgs(
						video.ID, video.Title, video.Description, video.Tags,
						video.OriginalName, video.Extension, video.FileSize,
						video.MimeType, video.UploadPath, video.DurationSeconds,
						video.ThumbnailPath, video.Status.String(),
						video.CreatedAt, video.UpdatedAt, video.ProcessedAt,
					).
					WillReturnError(&pgconn.PgError{Code: "23505"})
			},
			wantErr: repository.ErrDuplicateVideo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			tt.mockFn(mock, tt.video)

			repo := NewVideoRepository(mock)
			err = repo.Create(context.Background(), tt.video)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Create() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Errorf("Create() unexpected error = %v", err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestVideoRepository_GetByID(t *testing.T) {
	now := time.Now()
	videoID := uuid.New()
	columns := []string{
		"id", "title", "description", "tags", "original_name", "extension", "file_size",
		"mime_type", "upload_path", "duration_seconds", "thumbnail_path", "status",
		"created_at", "updated_at", "processed_at",
	}

	tests := []struct {
		name    string
		mockFn  func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "successful retrieval",
			mockFn: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(columns).AddRow(
					videoID, "Test Video", "", []string{}, "in.mp4", ".mp4", int64(1024),
					"video/mp4", "uploads/raw/x.mp4", nil, nil, "PENDING",
					now, now, nil,
				)
				mock.ExpectQuery("SELECT .* FROM videos WHERE id").
					WithArgs(videoID).
					WillReturnRows(rows)
			},
			wantErr: nil,
		},
		{
			name: "video not found",
			mockFn: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT .* FROM videos WHERE id").
					WithArgs(videoID).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: repository.ErrVideoNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			tt.mockFn(mock)

			repo := NewVideoRepository(mock)
			got, err := repo.GetByID(context.Background(), videoID)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("GetByID() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Errorf("GetByID() unexpected error = %v", err)
				return
			}
			if got.ID != videoID || got.Status != model.StatusPending {
				t.Errorf("GetByID() = %+v", got)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestVideoRepository_List(t *testing.T) {
	now := time.Now()
	columns := []string{
		"id", "title", "description", "tags", "original_name", "extension", "file_size",
		"mime_type", "upload_path", "duration_seconds", "thumbnail_path", "status",
		"created_at", "updated_at", "processed_at",
	}

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer mock.Close()

	rows := pgxmock.NewRows(columns).
		AddRow(uuid.New(), "Video 1", "", []string{}, "a.mp4", ".mp4", int64(1), "video/mp4", "uploads/raw/a.mp4", nil, nil, "READY", now, now, &now).
		AddRow(uuid.New(), "Video 2", "", []string{}, "b.mp4", ".mp4", int64(1), "video/mp4", "uploads/raw/b.mp4", nil, nil, "PENDING", now, now, nil)
	mock.ExpectQuery("SELECT .* FROM videos").WillReturnRows(rows)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM videos").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	repo := NewVideoRepository(mock)
	got, total, err := repo.List(context.Background(), repository.VideoListFilter{Limit: 20})
	if err != nil {
		t.Fatalf("List() unexpected error = %v", err)
	}
	if len(got) != 2 || total != 2 {
		t.Errorf("List() = %d videos, total %d, want 2/2", len(got), total)
	}
}

func TestVideoRepository_UpdateStatus(t *testing.T) {
	videoID := uuid.New()

	tests := []struct {
		name    string
		mockFn  func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "successful status update",
			mockFn: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("UPDATE videos").
					WithArgs(videoID, "PROCESSING", pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
			wantErr: nil,
		},
		{
			name: "video not found",
			mockFn: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("UPDATE videos").
					WithArgs(videoID, "PROCESSING", pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr: repository.ErrVideoNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			tt.mockFn(mock)

			repo := NewVideoRepository(mock)
			err = repo.UpdateStatus(context.Background(), videoID, model.StatusProcessing)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("UpdateStatus() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Errorf("UpdateStatus() unexpected error = %v", err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestVideoRepository_Delete(t *testing.T) {
	videoID := uuid.New()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("DELETE FROM videos").
		WithArgs(videoID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	repo := NewVideoRepository(mock)
	if err := repo.Delete(context.Background(), videoID); err != nil {
		t.Errorf("Delete() unexpected error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
