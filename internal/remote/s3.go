package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/remotefiles/internal/common"
	"github.com/dmitrijs2005/remotefiles/internal/logging"
)

// S3Options configures an S3Manager.
//
// AccessKey/SecretKey fall back to the default AWS credential chain when
// empty. BaseEndpoint and UsePathStyle target S3-compatible stores; PublicURL
// replaces the https://{bucket}.s3.amazonaws.com host in generated URLs.
type S3Options struct {
	Bucket       string
	Prefix       string
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	UsePathStyle bool
	PublicURL    string
}

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Manager is a Manager scoped to one bucket and one key prefix.
type S3Manager struct {
	client    s3API
	bucket    string
	prefix    string
	publicURL string
	logger    logging.Logger
}

// NewS3Manager loads the AWS configuration with static credentials when an
// access key is set. BaseEndpoint and UsePathStyle point the client at
// S3-compatible stores.
func NewS3Manager(ctx context.Context, o S3Options, l logging.Logger) (*S3Manager, error) {
	if o.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket is required", common.ErrInvalidConfig)
	}

	optFns := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	if o.AccessKey != "" {
		optFns = append(optFns, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(opts *s3.Options) {
		if o.BaseEndpoint != "" {
			opts.BaseEndpoint = aws.String(o.BaseEndpoint)
		}
		opts.UsePathStyle = o.UsePathStyle
	})

	return &S3Manager{
		client:    client,
		bucket:    o.Bucket,
		prefix:    strings.Trim(o.Prefix, "/"),
		publicURL: strings.TrimRight(o.PublicURL, "/"),
		logger:    l.With("module", "remote", "backend", string(BackendS3), "bucket", o.Bucket),
	}, nil
}

func (m *S3Manager) Name() string { return string(BackendS3) }

func (m *S3Manager) Write(ctx context.Context, p string, contents []byte) bool {
	key := joinKey(m.prefix, p)
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(contents),
		ContentLength: aws.Int64(int64(len(contents))),
		ContentType:   aws.String(contentType(p)),
	})
	if err != nil {
		m.logger.Error(ctx, "remote write failed", "key", key, "error", err)
		return false
	}
	m.logger.Debug(ctx, "remote write", "key", key, "size", len(contents))
	return true
}

func (m *S3Manager) Delete(ctx context.Context, p string) bool {
	key := joinKey(m.prefix, p)
	_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	var missing *types.NoSuchKey
	if err != nil && !errors.As(err, &missing) {
		m.logger.Error(ctx, "remote delete failed", "key", key, "error", err)
		return false
	}
	return true
}

// URL is https://{bucket}.s3.amazonaws.com/{prefix}/{p}, or
// {PublicURL}/{prefix}/{p} when a public URL is configured.
func (m *S3Manager) URL(p string) string {
	base := m.publicURL
	if base == "" {
		base = "https://" + m.bucket + ".s3.amazonaws.com"
	}
	return base + "/" + joinKey(m.prefix, p)
}
