package metadata

import (
	"context"
	"errors"
	"log/slog"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
)

var _ outbound.MetadataFetcher = (*CachedFetcher)(nil)

// CachedFetcher serves documents from a cache and falls back to the wrapped
// fetcher on a miss. Cache failures are logged and never fail a fetch.
type CachedFetcher struct {
	next   outbound.MetadataFetcher
	cache  outbound.MetadataCache
	logger *slog.Logger
}

// NewCachedFetcher wraps next with cache.
func NewCachedFetcher(next outbound.MetadataFetcher, cache outbound.MetadataCache, logger *slog.Logger) *CachedFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedFetcher{
		next:   next,
		cache:  cache,
		logger: logger.With("component", "metadata-cache"),
	}
}

func (c *CachedFetcher) FetchDocument(ctx context.Context, url string) (*entity.MetadataDocument, error) {
	doc, err := c.cache.Get(ctx, url)
	switch {
	case err == nil:
		return doc, nil
	case !errors.Is(err, outbound.ErrCacheMiss):
		c.logger.Warn("metadata cache read failed", "url", url, "error", err)
	}

	doc, err = c.next.FetchDocument(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, url, doc); err != nil {
		c.logger.Warn("metadata cache write failed", "url", url, "error", err)
	}
	return doc, nil
}
