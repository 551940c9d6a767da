package captions

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TimingsDocument is the on-disk handoff between narration synthesis and
// captioning: the narration length plus every timing observation collected
// during synthesis.
type TimingsDocument struct {
	Duration     float64             `json:"duration"`
	Observations []TimingObservation `json:"observations"`
}

// SaveTimings writes the document as JSON, creating parent directories.
func SaveTimings(path string, doc TimingsDocument) error {
	if path == "" {
		return fmt.Errorf("save timings: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save timings: ensure dir: %w", err)
	}
	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("save timings: encode: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("save timings: write: %w", err)
	}
	return nil
}

// LoadTimings reads a document written by SaveTimings.
func LoadTimings(path string) (TimingsDocument, error) {
	var doc TimingsDocument
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("load timings: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("load timings: parse: %w", err)
	}
	return doc, nil
}
