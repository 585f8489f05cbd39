package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/remotefiles/internal/common"
	"github.com/dmitrijs2005/remotefiles/internal/logging"
)

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	bodies  [][]byte
	deletes []*s3.DeleteObjectInput
	putErr  error
	delErr  error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, in)
	if f.delErr != nil {
		return nil, f.delErr
	}
	return &s3.DeleteObjectOutput{}, nil
}

func bufLogger() (logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil))), &buf
}

func newTestS3(client *fakeS3, prefix, publicURL string) (*S3Manager, *bytes.Buffer) {
	l, buf := bufLogger()
	return &S3Manager{client: client, bucket: "media", prefix: prefix, publicURL: publicURL, logger: l}, buf
}

func TestS3Manager_Write(t *testing.T) {
	client := &fakeS3{}
	m, _ := newTestS3(client, "uploads", "")

	ok := m.Write(context.Background(), "photos-1.png", []byte("png-bytes"))

	require.True(t, ok)
	require.Len(t, client.puts, 1)
	assert.Equal(t, "media", aws.ToString(client.puts[0].Bucket))
	assert.Equal(t, "uploads/photos-1.png", aws.ToString(client.puts[0].Key))
	assert.Equal(t, "image/png", aws.ToString(client.puts[0].ContentType))
	assert.Equal(t, int64(9), aws.ToInt64(client.puts[0].ContentLength))
	assert.Equal(t, []byte("png-bytes"), client.bodies[0])
}

func TestS3Manager_Write_FailureIsLoggedAndFalse(t *testing.T) {
	client := &fakeS3{putErr: errors.New("access denied")}
	m, buf := newTestS3(client, "uploads", "")

	assert.False(t, m.Write(context.Background(), "a.txt", []byte("x")))
	assert.Contains(t, buf.String(), "remote write failed")
	assert.Contains(t, buf.String(), "access denied")
}

func TestS3Manager_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := &fakeS3{}
		m, _ := newTestS3(client, "", "")
		assert.True(t, m.Delete(context.Background(), "photos-1.png"))
		assert.Equal(t, "photos-1.png", aws.ToString(client.deletes[0].Key))
	})

	t.Run("missing key is tolerated", func(t *testing.T) {
		client := &fakeS3{delErr: &types.NoSuchKey{}}
		m, _ := newTestS3(client, "", "")
		assert.True(t, m.Delete(context.Background(), "gone.png"))
	})

	t.Run("twice on the same key never errors", func(t *testing.T) {
		client := &fakeS3{}
		m, _ := newTestS3(client, "p", "")
		assert.True(t, m.Delete(context.Background(), "k.png"))
		assert.True(t, m.Delete(context.Background(), "k.png"))
		assert.Len(t, client.deletes, 2)
	})

	t.Run("backend error", func(t *testing.T) {
		client := &fakeS3{delErr: errors.New("timeout")}
		m, buf := newTestS3(client, "", "")
		assert.False(t, m.Delete(context.Background(), "k.png"))
		assert.Contains(t, buf.String(), "remote delete failed")
	})
}

func TestS3Manager_URL(t *testing.T) {
	tests := []struct {
		name      string
		prefix    string
		publicURL string
		want      string
	}{
		{name: "bucket host with prefix", prefix: "uploads", want: "https://media.s3.amazonaws.com/uploads/photos-1.png"},
		{name: "no prefix", want: "https://media.s3.amazonaws.com/photos-1.png"},
		{name: "public url override", prefix: "uploads", publicURL: "http://localhost:8333/media", want: "http://localhost:8333/media/uploads/photos-1.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestS3(&fakeS3{}, tt.prefix, tt.publicURL)
			assert.Equal(t, tt.want, m.URL("photos-1.png"))
		})
	}
}

func TestNewS3Manager_AppliesOptions(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	var region string
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		region = lo.Region
		require.NotNil(t, lo.Credentials, "static credentials expected")
		return aws.Config{}, nil
	}

	var captured s3.Options
	fake := &fakeS3{}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		for _, fn := range optFns {
			fn(&captured)
		}
		return fake
	}

	m, err := NewS3Manager(context.Background(), S3Options{
		Bucket:       "media",
		Prefix:       "/uploads/",
		Region:       "eu-west-1",
		AccessKey:    "ak",
		SecretKey:    "sk",
		BaseEndpoint: "http://127.0.0.1:9000",
		UsePathStyle: true,
	}, logging.Nop())
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", region)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(captured.BaseEndpoint))
	assert.True(t, captured.UsePathStyle)
	assert.Equal(t, "https://media.s3.amazonaws.com/uploads/x.jpg", m.URL("x.jpg"))
	assert.Same(t, fake, m.client)
}

func TestNewS3Manager_Errors(t *testing.T) {
	_, err := NewS3Manager(context.Background(), S3Options{}, logging.Nop())
	require.ErrorIs(t, err, common.ErrInvalidConfig)

	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = NewS3Manager(context.Background(), S3Options{Bucket: "b"}, logging.Nop())
	require.ErrorContains(t, err, "load-fail")
}
