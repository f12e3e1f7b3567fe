// cache.go provides an in-memory implementation of MetadataCache.
//
// Documents are keyed by their normalised URL and expire after a TTL. When
// the cache holds MaxEntries documents the oldest entry is evicted.
//
// All operations are thread-safe. Data is lost on process restart.
// For a shared cache across replicas, use the Redis adapter.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
)

// Compile-time check that MetadataCache implements outbound.MetadataCache
var _ outbound.MetadataCache = (*MetadataCache)(nil)

// MetadataCacheConfig holds configuration for the in-memory cache.
type MetadataCacheConfig struct {
	TTL        time.Duration
	MaxEntries int
}

// MetadataCacheConfigDefaults returns a config with default values.
func MetadataCacheConfigDefaults() MetadataCacheConfig {
	return MetadataCacheConfig{
		TTL:        time.Hour,
		MaxEntries: 10000,
	}
}

type cacheEntry struct {
	doc      entity.MetadataDocument
	storedAt time.Time
}

// MetadataCache is an in-memory implementation of the MetadataCache port.
type MetadataCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	order   []string
	config  MetadataCacheConfig
	closed  bool
	now     func() time.Time
}

// NewMetadataCache creates a new in-memory metadata cache.
func NewMetadataCache(config MetadataCacheConfig) *MetadataCache {
	defaults := MetadataCacheConfigDefaults()
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = defaults.MaxEntries
	}
	return &MetadataCache{
		entries: make(map[string]cacheEntry),
		config:  config,
		now:     time.Now,
	}
}

// Get returns a copy of the cached document or outbound.ErrCacheMiss.
func (c *MetadataCache) Get(ctx context.Context, url string) (*entity.MetadataDocument, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[url]
	if !ok || c.closed || c.now().Sub(e.storedAt) > c.config.TTL {
		return nil, outbound.ErrCacheMiss
	}
	doc := e.doc
	return &doc, nil
}

// Set stores a copy of doc.
func (c *MetadataCache) Set(ctx context.Context, url string, doc *entity.MetadataDocument) error {
	if doc == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	if _, exists := c.entries[url]; !exists {
		c.order = append(c.order, url)
	}
	c.entries[url] = cacheEntry{doc: *doc, storedAt: c.now()}

	for len(c.entries) > c.config.MaxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	return nil
}

// Len returns the number of cached documents.
func (c *MetadataCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close clears the cache.
func (c *MetadataCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.entries = make(map[string]cacheEntry)
	c.order = nil
	return nil
}
