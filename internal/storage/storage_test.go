package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"recycle-pickup-api-server/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	storage_go "github.com/supabase-community/storage-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey(UserPrefix("u1"), "", "IMG_0001.JPG")
	assert.True(t, strings.HasPrefix(key, "pickups/u1/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	other := ObjectKey("pickups", "u1", "IMG_0001.JPG")
	assert.True(t, strings.HasPrefix(other, "pickups/u1/"))
	assert.NotEqual(t, key, other)

	assert.False(t, strings.Contains(ObjectKey("p", "u", "noext"), "."))
}

func TestPhotoContentType(t *testing.T) {
	ct, ok := PhotoContentType("scan.PNG")
	assert.True(t, ok)
	assert.Equal(t, "image/png", ct)

	ct, ok = PhotoContentType("receipt.heic")
	assert.True(t, ok)
	assert.Equal(t, "image/heic", ct)

	_, ok = PhotoContentType("notes.pdf")
	assert.False(t, ok)
	_, ok = PhotoContentType("noext")
	assert.False(t, ok)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Provider: "ftp"})
	assert.Error(t, err)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	data, _ := io.ReadAll(params.Body)
	f.body = string(data)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Upload(t *testing.T) {
	api := &fakeS3{}
	u := &S3Uploader{client: api, Bucket: "photos", Region: "us-east-1"}

	url, err := u.Upload(context.Background(), strings.NewReader("jpeg"), "pickups/u1/a.png", "image/png")

	require.NoError(t, err)
	assert.Equal(t, "https://photos.s3.us-east-1.amazonaws.com/pickups/u1/a.png", url)
	assert.Equal(t, "photos", aws.ToString(api.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(api.input.ContentType))
	assert.Equal(t, "jpeg", api.body)

	u.CloudFrontDomain = "d111.cloudfront.net"
	assert.Equal(t, "https://d111.cloudfront.net/k.jpg", u.URL("k.jpg"))

	api.err = errors.New("denied")
	_, err = u.Upload(context.Background(), strings.NewReader("x"), "k", "image/jpeg")
	assert.ErrorContains(t, err, "denied")
}

func TestGCSURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/b/pickups/u1/x.jpg", gcsURL("b", "pickups/u1/x.jpg"))
}

type fakeSupabase struct {
	path string
	opts storage_go.FileOptions
	err  error
}

func (f *fakeSupabase) UploadFile(bucketId string, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error) {
	f.path = bucketId + "/" + relativePath
	if len(fileOptions) > 0 {
		f.opts = fileOptions[0]
	}
	return storage_go.FileUploadResponse{Key: relativePath}, f.err
}

func TestSupabaseUpload(t *testing.T) {
	_, err := NewSupabaseUploader(config.SupabaseConfig{Bucket: "b"})
	assert.Error(t, err)

	u, err := NewSupabaseUploader(config.SupabaseConfig{URL: "https://abc.supabase.co/", ServiceRoleKey: "k", Bucket: "photos"})
	require.NoError(t, err)
	api := &fakeSupabase{}
	u.client = api

	url, err := u.Upload(context.Background(), strings.NewReader("x"), "pickups/u1/a.jpg", "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "https://abc.supabase.co/storage/v1/object/public/photos/pickups/u1/a.jpg", url)
	assert.Equal(t, "photos/pickups/u1/a.jpg", api.path)
	require.NotNil(t, api.opts.ContentType)
	assert.Equal(t, "image/jpeg", *api.opts.ContentType)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = u.Upload(ctx, strings.NewReader("x"), "k", "image/jpeg")
	assert.ErrorIs(t, err, context.Canceled)
}
