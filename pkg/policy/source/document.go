package source

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is a routing rule document as stored in a rules file.
type Document struct {
	// MockPatterns are anchored path patterns routed to the mock
	// backend.
	MockPatterns []string `yaml:"mock_patterns"`

	// RealPatterns are always-real exceptions checked before the mock
	// patterns.
	RealPatterns []string `yaml:"real_patterns"`

	// MockDomains are host substrings routed to the mock backend.
	MockDomains []string `yaml:"mock_domains"`
}

// ParseDocument parses a YAML rule document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rules document: %w", err)
	}
	return &doc, nil
}

// Source loads rule documents and reports changes.
type Source interface {
	// Load reads and parses the current rule document.
	Load(ctx context.Context) (*Document, error)

	// Watch blocks, invoking onChange with each successfully loaded
	// replacement document, until ctx is cancelled.
	Watch(ctx context.Context, onChange func(*Document)) error

	// Close releases the source's resources.
	Close() error
}
