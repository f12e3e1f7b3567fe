package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
)

// MockMetadataFetcher implements outbound.MetadataFetcher for testing.
// Without FetchFn every URL resolves to a document whose image is the URL
// with a ".png" suffix.
type MockMetadataFetcher struct {
	mu      sync.Mutex
	FetchFn func(ctx context.Context, url string) (*entity.MetadataDocument, error)
	URLs    []string
}

func (m *MockMetadataFetcher) FetchDocument(ctx context.Context, url string) (*entity.MetadataDocument, error) {
	m.mu.Lock()
	m.URLs = append(m.URLs, url)
	m.mu.Unlock()
	if m.FetchFn != nil {
		return m.FetchFn(ctx, url)
	}
	return &entity.MetadataDocument{Image: url + ".png"}, nil
}

// Count returns how many documents were requested.
func (m *MockMetadataFetcher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.URLs)
}

// MockMetrics implements outbound.GalleryMetrics and counts calls.
type MockMetrics struct {
	mu           sync.Mutex
	Batches      int
	Dropped      int
	Placeholders int
	Cycles       map[entity.OutcomeKind]int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{Cycles: make(map[entity.OutcomeKind]int)}
}

func (m *MockMetrics) RecordBatch(ctx context.Context, cycle entity.CycleKind, size int, duration time.Duration, dropped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Batches++
	if dropped {
		m.Dropped++
	}
}

func (m *MockMetrics) RecordPlaceholder(ctx context.Context, cycle entity.CycleKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Placeholders++
}

func (m *MockMetrics) RecordCycle(ctx context.Context, cycle entity.CycleKind, outcome entity.OutcomeKind, duration time.Duration, nfts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cycles[outcome]++
}
