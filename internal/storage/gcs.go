package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gstorage "cloud.google.com/go/storage"

	"github.com/Magazine-LFA/editorial/internal/config"
)

// gcsBackend implements Backend on top of Google Cloud Storage. Credentials
// come from the ambient environment (GOOGLE_APPLICATION_CREDENTIALS or
// workload identity).
type gcsBackend struct {
	client *gstorage.Client
	bucket string
}

// NewGCS creates a Google Cloud Storage backend.
func NewGCS(ctx context.Context, cfg config.GCSConfig) (Backend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	cli, err := gstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &gcsBackend{client: cli, bucket: cfg.Bucket}, nil
}

// Store streams the object into the bucket and returns its public URL.
func (g *gcsBackend) Store(ctx context.Context, objectName string, r io.Reader, opt PutOptions) (string, error) {
	w := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = opt.ContentType
	if len(opt.Metadata) > 0 {
		w.Metadata = opt.Metadata
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write to gcs: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize gcs object: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, objectName), nil
}

// Remove deletes an object by name. Deleting an object that is already gone
// is not an error; the lifecycle treats removal as advisory.
func (g *gcsBackend) Remove(ctx context.Context, objectName string) error {
	err := g.client.Bucket(g.bucket).Object(objectName).Delete(ctx)
	if errors.Is(err, gstorage.ErrObjectNotExist) {
		return nil
	}
	return err
}
