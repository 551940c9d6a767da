package queue

import (
	"encoding/json"
	"strings"
)

// ItemMetadata carries script-derived fields that travel with the item but
// do not warrant their own columns.
type ItemMetadata struct {
	Hook        string   `json:"hook,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Hashtags    []string `json:"hashtags,omitempty"`
	Duration    float64  `json:"duration,omitempty"`
}

// MetadataFromJSON parses the metadata payload, returning a zero value for
// empty or malformed input.
func MetadataFromJSON(raw string) ItemMetadata {
	var meta ItemMetadata
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return meta
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return ItemMetadata{}
	}
	return meta
}

// ToJSON serializes the metadata for storage on the item.
func (m ItemMetadata) ToJSON() (string, error) {
	encoded, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
