// Package tokenuri turns producer-supplied token and image URIs into
// fetchable HTTP locations.
package tokenuri

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/config"
)

// Config configures a Normalizer.
type Config struct {
	// Gateway is the HTTP(S) base that replaces the ipfs:// scheme.
	Gateway string
	// Placeholder is returned for any input that cannot be normalised.
	Placeholder string
}

// ConfigDefaults returns the public ipfs.io gateway and the gallery placeholder.
func ConfigDefaults() Config {
	return Config{
		Gateway:     config.DefaultIPFSGateway,
		Placeholder: config.PlaceholderImage,
	}
}

// Normalizer rewrites URIs. It is safe for concurrent use.
type Normalizer struct {
	gateway     string
	placeholder string
}

// NewNormalizer validates cfg and returns a Normalizer. Empty fields take defaults.
func NewNormalizer(cfg Config) (*Normalizer, error) {
	defaults := ConfigDefaults()
	if cfg.Gateway == "" {
		cfg.Gateway = defaults.Gateway
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = defaults.Placeholder
	}

	u, err := url.Parse(cfg.Gateway)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("gateway %q must be an absolute http(s) URL", cfg.Gateway)
	}

	return &Normalizer{
		gateway:     strings.TrimRight(cfg.Gateway, "/"),
		placeholder: cfg.Placeholder,
	}, nil
}

// Placeholder returns the fallback image URL.
func (n *Normalizer) Placeholder() string {
	return n.placeholder
}

// IsPlaceholder reports whether s is the fallback image URL.
func (n *Normalizer) IsPlaceholder(s string) bool {
	return s == n.placeholder
}

// Normalize maps ipfs://X to <gateway>/ipfs/X and passes other absolute URIs
// through. Empty, unparsable or scheme-less input yields the placeholder.
func (n *Normalizer) Normalize(uri string) string {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return n.placeholder
	}

	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" {
		return n.placeholder
	}

	if !strings.EqualFold(u.Scheme, "ipfs") {
		return uri
	}

	path := strings.TrimLeft(uri[len(u.Scheme)+1:], "/")
	path = strings.TrimPrefix(path, "ipfs/")
	if path == "" {
		return n.placeholder
	}
	return n.gateway + "/ipfs/" + path
}
