// internal/storage/supabase.go
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"recycle-pickup-api-server/config"

	storage_go "github.com/supabase-community/storage-go"
)

type supabaseAPI interface {
	UploadFile(bucketId string, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
}

type SupabaseUploader struct {
	client  supabaseAPI
	baseURL string
	Bucket  string
}

func NewSupabaseUploader(cfg config.SupabaseConfig) (*SupabaseUploader, error) {
	if cfg.URL == "" || cfg.ServiceRoleKey == "" {
		return nil, fmt.Errorf("supabase url and service role key are required")
	}
	baseURL := strings.TrimRight(cfg.URL, "/")
	client := storage_go.NewClient(baseURL+"/storage/v1", cfg.ServiceRoleKey, nil)
	return &SupabaseUploader{client: client, baseURL: baseURL, Bucket: cfg.Bucket}, nil
}

// Upload checks ctx only before the request; the storage client takes no context.
func (u *SupabaseUploader) Upload(ctx context.Context, body io.Reader, objectKey, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	upsert := false
	_, err := u.client.UploadFile(u.Bucket, objectKey, body, storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to supabase: %w", err)
	}
	return u.PublicURL(objectKey), nil
}

func (u *SupabaseUploader) PublicURL(objectKey string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", u.baseURL, u.Bucket, objectKey)
}
