package storage

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/streamforge/streamforge/internal/domain/repository"
)

// Driver selects which ObjectStorage backend New constructs.
type Driver string

const (
	DriverLocal Driver = "local"
	DriverS3    Driver = "s3"
)

// Config carries the union of settings needed by either storage driver.
type Config struct {
	Driver Driver

	// Local
	LocalPath string

	// S3 / MinIO
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// New constructs the configured repository.ObjectStorage backend.
func New(ctx context.Context, cfg Config) (repository.ObjectStorage, error) {
	switch cfg.Driver {
	case DriverLocal:
		return NewLocalClient(afero.NewOsFs(), cfg.LocalPath)
	case DriverS3:
		return NewObjectClient(ctx, ObjectClientConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
