package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"employee-service/internal/config"
)

const (
	DriverFilesystem = "filesystem"
	DriverMinIO      = "minio"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

// Storage keeps binary objects (employee photos) addressed by slash-separated keys.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
}

func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case DriverFilesystem, "":
		return NewLocalStorage(cfg.Filesystem.BasePath, cfg.Filesystem.MediaURL)
	case DriverMinIO:
		return NewMinIOStorage(cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey,
			cfg.MinIO.Bucket, cfg.MinIO.UseSSL, time.Duration(cfg.MinIO.PresignExpirySeconds)*time.Second)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// CheckKey rejects absolute keys, empty keys and keys escaping the root.
func CheckKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || path.Clean(key) != key || strings.HasPrefix(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
