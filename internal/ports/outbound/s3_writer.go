package outbound

import (
	"context"
	"io"
	"time"
)

// S3Writer defines the interface for writing files to S3.
type S3Writer interface {
	// WriteFile writes content to the specified key in the bucket, replacing
	// any existing object. The content is gzip compressed if compressGzip is true.
	WriteFile(ctx context.Context, bucket, key string, content io.Reader, compressGzip bool) error

	// WriteFileIfNotExists writes content only when key is absent. It returns
	// false without error when the object already exists.
	WriteFileIfNotExists(ctx context.Context, bucket, key string, content io.Reader, compressGzip bool) (bool, error)
}

// S3File describes one stored object.
type S3File struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// S3Reader defines the interface for reading files from S3.
type S3Reader interface {
	// ListFiles lists the objects under prefix, newest first.
	ListFiles(ctx context.Context, bucket, prefix string) ([]S3File, error)

	// StreamFile returns the object body, decompressed when key ends in ".gz".
	// The caller closes the reader.
	StreamFile(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
