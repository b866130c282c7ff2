// internal/storage/storage.go
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"recycle-pickup-api-server/config"

	"github.com/google/uuid"
)

// Uploader stores an object and returns the public URL it is served from.
type Uploader interface {
	Upload(ctx context.Context, body io.Reader, objectKey, contentType string) (string, error)
}

// New builds the uploader selected by cfg.Provider.
func New(ctx context.Context, cfg config.StorageConfig) (Uploader, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3Uploader(ctx, cfg.S3)
	case "gcs":
		return NewGCSUploader(ctx, cfg.GCS)
	case "supabase":
		return NewSupabaseUploader(cfg.Supabase)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// ObjectKey returns "<prefix>/<userID>/<uuid><ext>", keeping the extension of
// filename lower-cased.
func ObjectKey(prefix, userID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join(prefix, userID, uuid.NewString()+ext)
}

var photoTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".heic": "image/heic",
	".webp": "image/webp",
}

// PhotoContentType returns the content type of a photo file name, and false
// when the extension is not an accepted photo format.
func PhotoContentType(filename string) (string, bool) {
	ct, ok := photoTypes[strings.ToLower(filepath.Ext(filename))]
	return ct, ok
}

// UserPrefix is the key prefix photos of one user are stored under.
func UserPrefix(userID string) string {
	return path.Join("pickups", userID)
}
