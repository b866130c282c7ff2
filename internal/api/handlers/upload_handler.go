// internal/api/handlers/upload_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"recycle-pickup-api-server/internal/api/middleware"
	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/storage"

	"github.com/gin-gonic/gin"
)

const defaultMaxPhotoBytes = 10 << 20

// UploadHandler stores photos straight into object storage, for clients
// that upload before calling createPickup.
type UploadHandler struct {
	Uploader storage.Uploader
	MaxBytes int64
}

// UploadPhoto takes a multipart "file" field and returns its public URL.
func (h *UploadHandler) UploadPhoto(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field: " + err.Error()})
		return
	}

	contentType, ok := storage.PhotoContentType(header.Filename)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported photo type"})
		return
	}
	limit := h.MaxBytes
	if limit <= 0 {
		limit = defaultMaxPhotoBytes
	}
	if header.Size == 0 || header.Size > limit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo must be between 1 and " + humanBytes(limit)})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file: " + err.Error()})
		return
	}
	defer file.Close()

	userID := middleware.UserID(c)
	key := storage.ObjectKey(storage.UserPrefix(userID), "", header.Filename)
	url, err := h.Uploader.Upload(c.Request.Context(), file, key, contentType)
	if err != nil {
		respondError(c, apperr.Wrap(apperr.CodeUnavailable, err, "failed to upload photo"))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url, "key": key})
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return strconv.FormatInt(n>>20, 10) + " MB"
	case n >= 1<<10 && n%(1<<10) == 0:
		return strconv.FormatInt(n>>10, 10) + " KB"
	default:
		return strconv.FormatInt(n, 10) + " bytes"
	}
}
