package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/remotefiles/internal/common"
	"github.com/dmitrijs2005/remotefiles/internal/logging"
)

// Backend enumerates the supported storage variants.
type Backend string

const (
	BackendS3     Backend = "S3"
	BackendMinio  Backend = "MinIO"
	BackendMemory Backend = "Memory"
)

// Options carries the settings of every variant; only the selected one is read.
type Options struct {
	Backend Backend
	S3      S3Options
	Minio   MinioOptions
	Memory  MemoryOptions
}

type factory func(ctx context.Context, o Options, l logging.Logger) (Manager, error)

var registry = map[Backend]factory{
	BackendS3: func(ctx context.Context, o Options, l logging.Logger) (Manager, error) {
		return NewS3Manager(ctx, o.S3, l)
	},
	BackendMinio: func(ctx context.Context, o Options, l logging.Logger) (Manager, error) {
		return NewMinioManager(ctx, o.Minio, l)
	},
	BackendMemory: func(ctx context.Context, o Options, l logging.Logger) (Manager, error) {
		return NewMemoryManager(o.Memory), nil
	},
}

// ParseBackend maps a configured name onto a Backend, ignoring case.
func ParseBackend(name string) (Backend, error) {
	for b := range registry {
		if strings.EqualFold(string(b), strings.TrimSpace(name)) {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", common.ErrUnknownBackend, name)
}

// New builds the Manager selected by o.Backend.
func New(ctx context.Context, o Options, l logging.Logger) (Manager, error) {
	f, ok := registry[o.Backend]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownBackend, o.Backend)
	}
	m, err := f(ctx, o, l)
	if err != nil {
		return nil, fmt.Errorf("init %s backend: %w", o.Backend, err)
	}
	return m, nil
}
