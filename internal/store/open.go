package store

import (
	"context"
	"fmt"
)

// Backends.
const (
	BackendFile     = "file"
	BackendS3       = "s3"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	Dir         string
	Compress    bool
	S3          S3Config
	PostgresDSN string
}

// Open builds the configured Store. The returned close func is never nil.
func Open(ctx context.Context, opts Options) (Store, func(), error) {
	noop := func() {}
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.Dir, opts.Compress), noop, nil
	case BackendMemory:
		return NewMemoryStore(), noop, nil
	case BackendS3:
		s, err := NewS3Store(opts.S3)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case BackendPostgres:
		s, err := NewPostgresStore(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown store backend %q", opts.Backend)
}
