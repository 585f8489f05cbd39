package remote

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/remotefiles/internal/common"
	"github.com/dmitrijs2005/remotefiles/internal/logging"
)

type putCall struct {
	bucket, object, contentType string
	size                        int64
	body                        []byte
}

type fakeMinio struct {
	puts      []putCall
	removed   []string
	putErr    error
	removeErr error
	exists    bool
	made      []string
}

func (f *fakeMinio) PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	b, _ := io.ReadAll(r)
	f.puts = append(f.puts, putCall{bucket: bucket, object: object, contentType: opts.ContentType, size: size, body: b})
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: size}, nil
}

func (f *fakeMinio) RemoveObject(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error {
	f.removed = append(f.removed, object)
	return f.removeErr
}

func (f *fakeMinio) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return f.exists, nil
}

func (f *fakeMinio) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	return nil
}

func withFakeMinio(t *testing.T, fake *fakeMinio) *minio.Options {
	t.Helper()
	orig := newMinioClient
	t.Cleanup(func() { newMinioClient = orig })

	captured := &minio.Options{}
	newMinioClient = func(endpoint string, opts *minio.Options) (minioAPI, error) {
		*captured = *opts
		return fake, nil
	}
	return captured
}

func TestNewMinioManager_CreatesMissingBucket(t *testing.T) {
	fake := &fakeMinio{exists: false}
	opts := withFakeMinio(t, fake)

	m, err := NewMinioManager(context.Background(), MinioOptions{
		Endpoint: "localhost:9000", Bucket: "media", Prefix: "uploads", UseSSL: true, CreateBucket: true,
	}, logging.Nop())
	require.NoError(t, err)

	assert.True(t, opts.Secure)
	assert.Equal(t, []string{"media"}, fake.made)
	assert.Equal(t, "https://localhost:9000/media/uploads/a.png", m.URL("a.png"))
}

func TestNewMinioManager_PublicURL(t *testing.T) {
	withFakeMinio(t, &fakeMinio{exists: true})

	m, err := NewMinioManager(context.Background(), MinioOptions{
		Endpoint: "minio:9000", Bucket: "media", PublicURL: "https://cdn.example.com/media/",
	}, logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/media/a.png", m.URL("a.png"))
}

func TestNewMinioManager_RequiresEndpointAndBucket(t *testing.T) {
	_, err := NewMinioManager(context.Background(), MinioOptions{Bucket: "b"}, logging.Nop())
	require.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestMinioManager_WriteDelete(t *testing.T) {
	fake := &fakeMinio{}
	l, buf := bufLogger()
	m := &MinioManager{client: fake, bucket: "media", prefix: "uploads", baseURL: "http://x/media", logger: l}
	ctx := context.Background()

	require.True(t, m.Write(ctx, "doc-1.pdf", []byte("%PDF")))
	require.Len(t, fake.puts, 1)
	assert.Equal(t, putCall{bucket: "media", object: "uploads/doc-1.pdf", contentType: "application/pdf", size: 4, body: []byte("%PDF")}, fake.puts[0])

	assert.True(t, m.Delete(ctx, "doc-1.pdf"))
	assert.Equal(t, []string{"uploads/doc-1.pdf"}, fake.removed)

	fake.putErr = errors.New("disk full")
	assert.False(t, m.Write(ctx, "doc-2.pdf", []byte("x")))
	fake.removeErr = errors.New("refused")
	assert.False(t, m.Delete(ctx, "doc-2.pdf"))
	assert.Contains(t, buf.String(), "disk full")
	assert.Contains(t, buf.String(), "refused")
}
