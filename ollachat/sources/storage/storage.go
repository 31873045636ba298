package storage

import (
	"context"
	"io"

	"ollachat/ollachat/config"
)

// ObjectStore holds the raw bytes of uploaded files.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}

// New picks MinIO when an endpoint is configured and the upload dir otherwise.
func New(ctx context.Context, cfg config.Config) (ObjectStore, error) {
	if cfg.MinIOEndpoint != "" {
		return NewMinIOClient(ctx, cfg)
	}
	return NewDiskStore(cfg.UploadDir)
}
