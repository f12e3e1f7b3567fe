// Package redis provides a Redis implementation of the MetadataCache port.
//
// This adapter stores decoded metadata documents as JSON with a configurable
// TTL so that replicas serving the same collection share resolved documents.
// Keys have the format prefix:meta:sha256(url).
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
)

// Compile-time check that MetadataCache implements outbound.MetadataCache
var _ outbound.MetadataCache = (*MetadataCache)(nil)

// Config holds Redis cache configuration.
type Config struct {
	// Addr is the Redis server address (e.g., "localhost:6379")
	Addr string
	// Password for Redis authentication (empty for no auth)
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// TTL is how long cached documents live before expiring
	TTL time.Duration
	// KeyPrefix is prepended to all cache keys
	KeyPrefix string
}

// ConfigDefaults returns sensible defaults for Redis cache configuration.
func ConfigDefaults() Config {
	return Config{
		Addr:      "localhost:6379",
		Password:  "",
		DB:        0,
		TTL:       6 * time.Hour,
		KeyPrefix: "fools",
	}
}

// MetadataCache is a Redis implementation of the outbound.MetadataCache port.
type MetadataCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	logger    *slog.Logger
}

// NewMetadataCache creates a new Redis metadata cache.
func NewMetadataCache(cfg Config, logger *slog.Logger) (*MetadataCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	defaults := ConfigDefaults()
	if cfg.TTL <= 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaults.KeyPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "redis-metadata-cache")

	return &MetadataCache{
		client:    client,
		ttl:       cfg.TTL,
		keyPrefix: cfg.KeyPrefix,
		logger:    logger,
	}, nil
}

// Ping checks the Redis connection.
func (c *MetadataCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *MetadataCache) Close() error {
	return c.client.Close()
}

// key hashes url so arbitrarily long gateway URLs map to fixed-size keys.
func (c *MetadataCache) key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return c.keyPrefix + ":meta:" + hex.EncodeToString(sum[:])
}

// Get retrieves a cached document. A missing key yields outbound.ErrCacheMiss.
func (c *MetadataCache) Get(ctx context.Context, url string) (*entity.MetadataDocument, error) {
	data, err := c.client.Get(ctx, c.key(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, outbound.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}

	var doc entity.MetadataDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		c.logger.Warn("discarding corrupt cache entry", "url", url, "error", err)
		return nil, outbound.ErrCacheMiss
	}
	return &doc, nil
}

// Set caches doc under url.
func (c *MetadataCache) Set(ctx context.Context, url string, doc *entity.MetadataDocument) error {
	if doc == nil {
		return nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := c.client.Set(ctx, c.key(url), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache metadata: %w", err)
	}
	return nil
}

// Delete removes the cached document for url.
func (c *MetadataCache) Delete(ctx context.Context, url string) error {
	if err := c.client.Del(ctx, c.key(url)).Err(); err != nil {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return nil
}
