// Package metadata fetches off-chain token metadata documents.
// It supports:
//   - HTTP(S) and IPFS gateway URLs, fetched once with a per-request timeout
//   - data: URIs carrying inline JSON, decoded without a network round trip
//   - An optional read-through cache in front of any fetcher
package metadata

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/pkg/httpclient"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
)

// Compile-time check that Fetcher implements outbound.MetadataFetcher.
var _ outbound.MetadataFetcher = (*Fetcher)(nil)

// ErrUnsupportedURL is returned for URLs the fetcher cannot retrieve.
var ErrUnsupportedURL = errors.New("unsupported metadata url")

// FetcherConfig holds configuration for the metadata fetcher.
type FetcherConfig struct {
	// Timeout is the maximum time to wait for a single document.
	Timeout time.Duration

	// RateLimitPerSec throttles outgoing requests. Zero means unlimited.
	RateLimitPerSec float64

	// MaxBodyBytes caps the size of a document.
	MaxBodyBytes int64

	Logger *slog.Logger

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client
}

// FetcherConfigDefaults returns a config with default values.
func FetcherConfigDefaults() FetcherConfig {
	return FetcherConfig{
		Timeout:      15 * time.Second,
		MaxBodyBytes: 4 << 20,
		Logger:       slog.Default(),
	}
}

// Fetcher retrieves metadata documents with a single attempt per URL.
type Fetcher struct {
	client *httpclient.Client
	logger *slog.Logger
}

// NewFetcher creates a metadata fetcher.
func NewFetcher(config FetcherConfig) *Fetcher {
	applyDefaults(&config, FetcherConfigDefaults())

	limit := rate.Inf
	if config.RateLimitPerSec > 0 {
		limit = rate.Limit(config.RateLimitPerSec)
	}

	logger := config.Logger.With("component", "metadata-fetcher")
	client := httpclient.NewClient(httpclient.Config{
		Timeout:      config.Timeout,
		MaxRetries:   0,
		RateLimit:    limit,
		RateBurst:    1,
		MaxBodyBytes: config.MaxBodyBytes,
		UserAgent:    httpclient.DefaultConfig().UserAgent,
	}, logger, config.HTTPClient)

	return &Fetcher{client: client, logger: logger}
}

func applyDefaults(config *FetcherConfig, defaults FetcherConfig) {
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
}

// FetchDocument retrieves and decodes the document at rawURL.
func (f *Fetcher) FetchDocument(ctx context.Context, rawURL string) (*entity.MetadataDocument, error) {
	if strings.HasPrefix(rawURL, "data:") {
		return decodeDataURI(rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnsupportedURL, rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
	}

	var doc entity.MetadataDocument
	if err := f.client.GetJSON(ctx, rawURL, map[string]string{"Accept": "application/json"}, &doc); err != nil {
		return nil, fmt.Errorf("fetching metadata %s: %w", rawURL, err)
	}
	return &doc, nil
}

// decodeDataURI decodes data:[<mediatype>][;base64],<payload> as JSON.
func decodeDataURI(uri string) (*entity.MetadataDocument, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed data uri", ErrUnsupportedURL)
	}

	var raw []byte
	if strings.HasSuffix(header, ";base64") {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decoding data uri: %w", err)
		}
		raw = b
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("decoding data uri: %w", err)
		}
		raw = []byte(s)
	}

	var doc entity.MetadataDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing data uri document: %w", err)
	}
	return &doc, nil
}
