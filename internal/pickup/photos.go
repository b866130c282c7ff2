package pickup

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultUploadConcurrency = 4

// Uploader stores a photo and returns the URL it is served from.
type Uploader interface {
	Upload(ctx context.Context, body io.Reader, objectKey, contentType string) (string, error)
}

// PhotoSource opens photos that are still local references.
type PhotoSource interface {
	Open(ref string) (io.ReadCloser, error)
}

// DirSource serves local references as plain file names inside Dir.
type DirSource struct {
	Dir string
}

func (s DirSource) Open(ref string) (io.ReadCloser, error) {
	if ref == "" || ref != filepath.Base(ref) || ref == "." || ref == ".." {
		return nil, apperr.New(apperr.CodeInvalidArgument, "%q is not a local photo reference", ref)
	}
	f, err := os.Open(filepath.Join(s.Dir, ref))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.Wrap(apperr.CodeNotFound, err, "photo %q was never uploaded", ref)
		}
		return nil, fmt.Errorf("failed to open photo %q: %w", ref, err)
	}
	return f, nil
}

// PhotoUploader replaces local photo references with remote URLs.
type PhotoUploader struct {
	Uploader Uploader
	Source   PhotoSource
	// Prefix is prepended to generated object keys, e.g. "pickups/<uid>".
	Prefix      string
	Concurrency int
}

// Resolve uploads every local photo of materials and returns a copy with the
// references replaced by URLs. Entries whose photos are all URLs are returned
// as they are, without any upload call.
//
// Uploads run concurrently. Each failed photo is reported as its own
// *PhotoUploadError (joined with errors.Join); photos that did upload are
// still replaced in the returned slice so a retry only redoes the failures.
func (u *PhotoUploader) Resolve(ctx context.Context, materials []models.MaterialEntry) ([]models.MaterialEntry, error) {
	out := make([]models.MaterialEntry, len(materials))
	copy(out, materials)

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []*PhotoUploadError
	)
	limit := u.Concurrency
	if limit <= 0 {
		limit = defaultUploadConcurrency
	}
	g.SetLimit(limit)

	for i, m := range materials {
		if m.PhotosResolved() {
			continue
		}
		photos := slices.Clone(m.Photos)
		out[i].Photos = photos
		for j, ref := range m.Photos {
			if models.IsRemotePhoto(ref) {
				continue
			}
			g.Go(func() error {
				url, err := u.upload(ctx, ref)
				if err != nil {
					mu.Lock()
					errs = append(errs, &PhotoUploadError{Material: i, Photo: j, Ref: ref, Err: err})
					mu.Unlock()
					return nil
				}
				photos[j] = url
				return nil
			})
		}
	}
	_ = g.Wait()

	if len(errs) == 0 {
		return out, nil
	}
	slices.SortFunc(errs, func(a, b *PhotoUploadError) int {
		return cmp.Or(cmp.Compare(a.Material, b.Material), cmp.Compare(a.Photo, b.Photo))
	})
	joined := make([]error, len(errs))
	for i, e := range errs {
		joined[i] = e
	}
	return out, errors.Join(joined...)
}

func (u *PhotoUploader) upload(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.Wrap(apperr.CodeUnavailable, err, "upload cancelled")
	}
	body, err := u.Source.Open(ref)
	if err != nil {
		return "", err
	}
	defer body.Close()

	ext := strings.ToLower(filepath.Ext(ref))
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "image/jpeg"
	}
	key := path.Join(u.Prefix, uuid.New().String()+ext)

	url, err := u.Uploader.Upload(ctx, body, key, contentType)
	if err != nil {
		if apperr.CodeOf(err) != apperr.CodeInternal {
			return "", err
		}
		return "", apperr.Wrap(apperr.CodeUnavailable, err, "photo upload failed")
	}
	return url, nil
}
