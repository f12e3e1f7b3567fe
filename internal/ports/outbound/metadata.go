package outbound

import (
	"context"
	"errors"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
)

// ErrCacheMiss is returned by MetadataCache.Get when no document is cached.
var ErrCacheMiss = errors.New("metadata cache miss")

// MetadataFetcher retrieves the off-chain metadata document behind a URL.
type MetadataFetcher interface {
	// FetchDocument performs a single GET of url and decodes the JSON body.
	FetchDocument(ctx context.Context, url string) (*entity.MetadataDocument, error)
}

// MetadataCache stores decoded metadata documents keyed by their normalised URL.
type MetadataCache interface {
	Get(ctx context.Context, url string) (*entity.MetadataDocument, error)
	Set(ctx context.Context, url string, doc *entity.MetadataDocument) error
	Close() error
}
