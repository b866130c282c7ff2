// internal/storage/gcs.go
package storage

import (
	"context"
	"fmt"
	"io"

	"recycle-pickup-api-server/config"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSUploader struct {
	client *storage.Client
	Bucket string
}

// NewGCSUploader falls back to application default credentials when no
// credentials file is configured.
func NewGCSUploader(ctx context.Context, cfg config.GCSConfig) (*GCSUploader, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSUploader{client: client, Bucket: cfg.Bucket}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, body io.Reader, objectKey, contentType string) (string, error) {
	w := u.client.Bucket(u.Bucket).Object(objectKey).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, body); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to upload file to GCS: %w", err)
	}
	// The object only exists once Close succeeds.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize GCS upload: %w", err)
	}
	return gcsURL(u.Bucket, objectKey), nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}

func gcsURL(bucket, objectKey string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectKey)
}
