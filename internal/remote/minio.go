package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dmitrijs2005/remotefiles/internal/common"
	"github.com/dmitrijs2005/remotefiles/internal/logging"
)

// MinioOptions configures a MinioManager. Endpoint is host[:port] without
// scheme; UseSSL selects https.
type MinioOptions struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Prefix       string
	UseSSL       bool
	CreateBucket bool
	PublicURL    string
}

type minioAPI interface {
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
}

var newMinioClient = func(endpoint string, opts *minio.Options) (minioAPI, error) {
	c, err := minio.New(endpoint, opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// MinioManager is a Manager backed by a MinIO server.
type MinioManager struct {
	client  minioAPI
	bucket  string
	prefix  string
	baseURL string
	logger  logging.Logger
}

// NewMinioManager connects to a MinIO endpoint and, with CreateBucket set,
// creates the bucket when it does not exist yet.
func NewMinioManager(ctx context.Context, o MinioOptions, l logging.Logger) (*MinioManager, error) {
	if o.Endpoint == "" || o.Bucket == "" {
		return nil, fmt.Errorf("%w: minio endpoint and bucket are required", common.ErrInvalidConfig)
	}

	client, err := newMinioClient(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	if o.CreateBucket {
		exists, err := client.BucketExists(ctx, o.Bucket)
		if err != nil {
			return nil, fmt.Errorf("check bucket %q: %w", o.Bucket, err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, o.Bucket, minio.MakeBucketOptions{}); err != nil {
				return nil, fmt.Errorf("create bucket %q: %w", o.Bucket, err)
			}
		}
	}

	baseURL := strings.TrimRight(o.PublicURL, "/")
	if baseURL == "" {
		scheme := "http"
		if o.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, o.Endpoint, o.Bucket)
	}

	return &MinioManager{
		client:  client,
		bucket:  o.Bucket,
		prefix:  strings.Trim(o.Prefix, "/"),
		baseURL: baseURL,
		logger:  l.With("module", "remote", "backend", string(BackendMinio), "bucket", o.Bucket),
	}, nil
}

func (m *MinioManager) Name() string { return string(BackendMinio) }

func (m *MinioManager) Write(ctx context.Context, p string, contents []byte) bool {
	key := joinKey(m.prefix, p)
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(contents), int64(len(contents)),
		minio.PutObjectOptions{ContentType: contentType(p)})
	if err != nil {
		m.logger.Error(ctx, "remote write failed", "key", key, "error", err)
		return false
	}
	return true
}

func (m *MinioManager) Delete(ctx context.Context, p string) bool {
	key := joinKey(m.prefix, p)
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		m.logger.Error(ctx, "remote delete failed", "key", key, "error", err)
		return false
	}
	return true
}

func (m *MinioManager) URL(p string) string {
	return m.baseURL + "/" + joinKey(m.prefix, p)
}
