// Package transfer reads and writes a session's bookmark tree as YAML.
package transfer

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of export files
type Loader struct {
	filePath string
}

// NewLoader creates a new export file loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the export file
func (l *Loader) Load() (Document, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read export file: %w", err)
	}
	return Parse(data)
}

// Parse decodes an export document and checks its version.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to parse export yaml: %w", err)
	}
	if doc.Version == 0 {
		doc.Version = FormatVersion
	}
	if doc.Version != FormatVersion {
		return Document{}, fmt.Errorf("unsupported export version %d", doc.Version)
	}
	return doc, nil
}

// Write encodes doc as YAML.
func Write(w io.Writer, doc Document) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode export yaml: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
