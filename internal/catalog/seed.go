package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed seed/funds.yaml
var seedYAML []byte

// Seed returns the catalog shipped with the binary
func Seed() (*Catalog, error) {
	return Parse(seedYAML)
}

// Parse decodes a YAML catalog document. Unknown keys are rejected.
func Parse(data []byte) (*Catalog, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a YAML catalog document from r
func Decode(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if c.Version == "" {
		return nil, fmt.Errorf("catalog version is required")
	}
	return &c, nil
}

// Marshal encodes a catalog back to YAML
func Marshal(c *Catalog) ([]byte, error) {
	return yaml.Marshal(c)
}
