package entity

import (
	"encoding/json"
	"strings"
)

// MetadataDocument is the off-chain JSON document a token URI points at.
// Only the fields the gallery displays are decoded; a field holding a value of
// the wrong JSON type is treated as absent rather than failing the decode.
type MetadataDocument struct {
	Name        string              `json:"name,omitempty"`
	Description string              `json:"description,omitempty"`
	Image       string              `json:"image,omitempty"`
	ImageURL    string              `json:"image_url,omitempty"`
	Attributes  []MetadataAttribute `json:"attributes,omitempty"`
}

// MetadataAttribute is one trait entry.
type MetadataAttribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// ImageReference returns the image field, falling back to image_url.
// It reports false when neither holds a non-empty string.
func (d *MetadataDocument) ImageReference() (string, bool) {
	if d == nil {
		return "", false
	}
	if ref := strings.TrimSpace(d.Image); ref != "" {
		return ref, true
	}
	if ref := strings.TrimSpace(d.ImageURL); ref != "" {
		return ref, true
	}
	return "", false
}

// UnmarshalJSON decodes a metadata document leniently.
func (d *MetadataDocument) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = MetadataDocument{
		Name:        stringField(raw, "name"),
		Description: stringField(raw, "description"),
		Image:       stringField(raw, "image"),
		ImageURL:    stringField(raw, "image_url"),
	}
	if attrs, ok := raw["attributes"]; ok {
		// malformed trait lists are common and never block the image
		_ = json.Unmarshal(attrs, &d.Attributes)
	}
	return nil
}

func stringField(raw map[string]json.RawMessage, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}
