package metadata

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/adapters/outbound/memory"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/testutil"
)

func newTestFetcher() *Fetcher {
	return NewFetcher(FetcherConfig{Timeout: time.Second, Logger: testutil.DiscardLogger()})
}

func TestFetcher_FetchDocument(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantImage string
		wantErr   bool
	}{
		{name: "image field", status: http.StatusOK, body: `{"image":"ipfs://X"}`, wantImage: "ipfs://X"},
		{name: "image_url field", status: http.StatusOK, body: `{"image_url":"https://Y"}`, wantImage: "https://Y"},
		{name: "neither field", status: http.StatusOK, body: `{"name":"Fool"}`},
		{name: "unparsable", status: http.StatusOK, body: `<html>`, wantErr: true},
		{name: "not found", status: http.StatusNotFound, body: `{}`, wantErr: true},
		{name: "server error", status: http.StatusBadGateway, body: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			doc, err := newTestFetcher().FetchDocument(context.Background(), srv.URL+"/1.json")
			if calls.Load() != 1 {
				t.Errorf("expected exactly one request, got %d", calls.Load())
			}
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, _ := doc.ImageReference()
			if got != tt.wantImage {
				t.Errorf("image = %q, want %q", got, tt.wantImage)
			}
		})
	}
}

func TestFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{Timeout: 50 * time.Millisecond, Logger: testutil.DiscardLogger()})
	start := time.Now()
	if _, err := f.FetchDocument(context.Background(), srv.URL); err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Errorf("timeout not enforced, took %s", time.Since(start))
	}
}

func TestFetcher_DataURI(t *testing.T) {
	f := newTestFetcher()
	encoded := base64.StdEncoding.EncodeToString([]byte(`{"image":"ipfs://inline"}`))

	tests := []struct {
		name      string
		uri       string
		wantImage string
		wantErr   bool
	}{
		{name: "base64", uri: "data:application/json;base64," + encoded, wantImage: "ipfs://inline"},
		{name: "percent encoded", uri: "data:application/json," + `%7B%22image_url%22%3A%22https%3A%2F%2FY%22%7D`, wantImage: "https://Y"},
		{name: "malformed", uri: "data:application/json", wantErr: true},
		{name: "bad base64", uri: "data:application/json;base64,***", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := f.FetchDocument(context.Background(), tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got, _ := doc.ImageReference(); got != tt.wantImage {
				t.Errorf("image = %q, want %q", got, tt.wantImage)
			}
		})
	}
}

func TestFetcher_UnsupportedScheme(t *testing.T) {
	f := newTestFetcher()
	for _, u := range []string{"ipfs://X", "ftp://host/x", "relative/path"} {
		if _, err := f.FetchDocument(context.Background(), u); !errors.Is(err, ErrUnsupportedURL) {
			t.Errorf("FetchDocument(%q) error = %v, want ErrUnsupportedURL", u, err)
		}
	}
}

func TestCachedFetcher(t *testing.T) {
	ctx := context.Background()
	next := &testutil.MockMetadataFetcher{}
	cache := memory.NewMetadataCache(memory.MetadataCacheConfig{})
	f := NewCachedFetcher(next, cache, testutil.DiscardLogger())

	for range 3 {
		doc, err := f.FetchDocument(ctx, "https://meta/1")
		if err != nil {
			t.Fatalf("FetchDocument: %v", err)
		}
		if doc.Image != "https://meta/1.png" {
			t.Errorf("image = %q", doc.Image)
		}
	}
	if next.Count() != 1 {
		t.Errorf("upstream fetched %d times, want 1", next.Count())
	}

	boom := errors.New("gateway down")
	next.FetchFn = func(ctx context.Context, url string) (*entity.MetadataDocument, error) { return nil, boom }
	if _, err := f.FetchDocument(ctx, "https://meta/2"); !errors.Is(err, boom) {
		t.Errorf("expected upstream error, got %v", err)
	}
	if cache.Len() != 1 {
		t.Errorf("failed fetch should not be cached, len=%d", cache.Len())
	}
}
