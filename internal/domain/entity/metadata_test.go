package entity

import (
	"encoding/json"
	"testing"
)

func TestMetadataDocument_ImageReference(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{name: "image", body: `{"image":"ipfs://X"}`, want: "ipfs://X", wantOK: true},
		{name: "image_url fallback", body: `{"image_url":"https://Y"}`, want: "https://Y", wantOK: true},
		{name: "image preferred", body: `{"image":"ipfs://X","image_url":"https://Y"}`, want: "ipfs://X", wantOK: true},
		{name: "neither", body: `{"name":"Fool #1"}`, wantOK: false},
		{name: "empty image falls back", body: `{"image":"","image_url":"https://Y"}`, want: "https://Y", wantOK: true},
		{name: "non-string image falls back", body: `{"image":42,"image_url":"https://Y"}`, want: "https://Y", wantOK: true},
		{name: "null image", body: `{"image":null}`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc MetadataDocument
			if err := json.Unmarshal([]byte(tt.body), &doc); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got, ok := doc.ImageReference()
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMetadataDocument_UnmarshalErrors(t *testing.T) {
	for _, body := range []string{`not json`, `[1,2]`, `"image"`} {
		var doc MetadataDocument
		if err := json.Unmarshal([]byte(body), &doc); err == nil {
			t.Errorf("expected error for %s", body)
		}
	}
}

func TestMetadataDocument_Attributes(t *testing.T) {
	var doc MetadataDocument
	body := `{"name":"Fool #3","attributes":[{"trait_type":"Hat","value":"Jester"}]}`
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Name != "Fool #3" {
		t.Errorf("Name = %q", doc.Name)
	}
	if len(doc.Attributes) != 1 || doc.Attributes[0].TraitType != "Hat" {
		t.Errorf("Attributes = %+v", doc.Attributes)
	}

	var bad MetadataDocument
	if err := json.Unmarshal([]byte(`{"image":"https://x","attributes":"oops"}`), &bad); err != nil {
		t.Fatalf("malformed attributes should not fail: %v", err)
	}
	if ref, _ := bad.ImageReference(); ref != "https://x" {
		t.Errorf("ImageReference = %q", ref)
	}
}

func TestMetadataDocument_NilReceiver(t *testing.T) {
	var doc *MetadataDocument
	if _, ok := doc.ImageReference(); ok {
		t.Error("nil document should have no image")
	}
}
