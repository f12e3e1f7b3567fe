package redis

import (
	"strings"
	"testing"
	"time"
)

// --- Test: NewMetadataCache ---

func TestNewMetadataCache_CreatesWithConfig(t *testing.T) {
	cfg := Config{
		Addr:      "localhost:6379",
		Password:  "secret",
		DB:        1,
		TTL:       1 * time.Hour,
		KeyPrefix: "test",
	}

	cache, err := NewMetadataCache(cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cache.Close()

	if cache.ttl != cfg.TTL {
		t.Errorf("expected TTL=%v, got %v", cfg.TTL, cache.ttl)
	}
	if cache.keyPrefix != cfg.KeyPrefix {
		t.Errorf("expected keyPrefix=%s, got %s", cfg.KeyPrefix, cache.keyPrefix)
	}
	if cache.client == nil {
		t.Fatal("expected client, got nil")
	}
	if cache.logger == nil {
		t.Fatal("expected logger, got nil")
	}
}

func TestNewMetadataCache_EmptyAddrReturnsError(t *testing.T) {
	_, err := NewMetadataCache(Config{}, nil)
	if err == nil {
		t.Fatal("expected error for empty addr, got nil")
	}
	if !strings.Contains(err.Error(), "redis address is required") {
		t.Errorf("expected 'redis address is required' error, got %v", err)
	}
}

func TestNewMetadataCache_AppliesDefaults(t *testing.T) {
	cache, err := NewMetadataCache(Config{Addr: "localhost:6379"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cache.Close()

	if cache.ttl != 6*time.Hour {
		t.Errorf("expected default TTL=6h, got %v", cache.ttl)
	}
	if cache.keyPrefix != "fools" {
		t.Errorf("expected default prefix=fools, got %s", cache.keyPrefix)
	}
}

// --- Test: key ---

func TestKey_IsStableAndFixedLength(t *testing.T) {
	cache, err := NewMetadataCache(Config{Addr: "localhost:6379", KeyPrefix: "p"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cache.Close()

	short := cache.key("https://ipfs.io/ipfs/a")
	long := cache.key("https://ipfs.io/ipfs/" + strings.Repeat("b", 4096))

	if short != cache.key("https://ipfs.io/ipfs/a") {
		t.Error("key is not deterministic")
	}
	if short == long {
		t.Error("different urls produced the same key")
	}
	if !strings.HasPrefix(short, "p:meta:") || len(short) != len(long) {
		t.Errorf("unexpected key format %q / %q", short, long)
	}
}
