package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
)

// MockS3 implements outbound.S3Writer and outbound.S3Reader over an
// in-memory object map. Content is stored uncompressed.
type MockS3 struct {
	mu      sync.Mutex
	objects map[string]mockObject
	seq     int

	// WriteErr, when set, fails every write.
	WriteErr error
}

type mockObject struct {
	body     []byte
	gzip     bool
	modified time.Time
}

func NewMockS3() *MockS3 {
	return &MockS3{objects: make(map[string]mockObject)}
}

func (m *MockS3) put(bucket, key string, content io.Reader, compressGzip bool) error {
	body, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	m.seq++
	m.objects[bucket+"/"+key] = mockObject{
		body:     body,
		gzip:     compressGzip,
		modified: time.Unix(int64(m.seq), 0),
	}
	return nil
}

func (m *MockS3) WriteFile(ctx context.Context, bucket, key string, content io.Reader, compressGzip bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	return m.put(bucket, key, content, compressGzip)
}

func (m *MockS3) WriteFileIfNotExists(ctx context.Context, bucket, key string, content io.Reader, compressGzip bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return false, m.WriteErr
	}
	if _, ok := m.objects[bucket+"/"+key]; ok {
		return false, nil
	}
	return true, m.put(bucket, key, content, compressGzip)
}

func (m *MockS3) ListFiles(ctx context.Context, bucket, prefix string) ([]outbound.S3File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var files []outbound.S3File
	for k, obj := range m.objects {
		key, ok := strings.CutPrefix(k, bucket+"/")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		files = append(files, outbound.S3File{Key: key, Size: int64(len(obj.body)), LastModified: obj.modified})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].LastModified.After(files[j].LastModified)
	})
	return files, nil
}

func (m *MockS3) StreamFile(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("no such key: %s", key)
	}
	return io.NopCloser(bytes.NewReader(obj.body)), nil
}

// Keys returns the stored keys of bucket, sorted.
func (m *MockS3) Keys(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.objects {
		if key, ok := strings.CutPrefix(k, bucket+"/"); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Gzipped reports whether key was written with compression requested.
func (m *MockS3) Gzipped(bucket, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[bucket+"/"+key].gzip
}
