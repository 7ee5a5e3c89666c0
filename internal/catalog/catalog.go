// Package catalog holds the provider and model choices offered by the chat page.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"corpchat-backend/internal/models"
)

//go:embed models.yaml
var defaultCatalog []byte

type Model struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

type Provider struct {
	ID     string  `yaml:"id" json:"id"`
	Label  string  `yaml:"label" json:"label"`
	Models []Model `yaml:"models" json:"models"`
}

type Catalog struct {
	Providers []Provider `yaml:"providers" json:"providers"`
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path, or the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog. Every provider id must be a
// provider the gateway service can address.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("invalid model catalog: %w", err)
	}
	if len(c.Providers) == 0 {
		return nil, fmt.Errorf("model catalog lists no providers")
	}

	seen := map[string]bool{}
	for i := range c.Providers {
		p := &c.Providers[i]
		if _, err := models.ParseProvider(p.ID); err != nil {
			return nil, fmt.Errorf("model catalog: %w", err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("model catalog: provider %q listed twice", p.ID)
		}
		seen[p.ID] = true
		if p.Label == "" {
			p.Label = p.ID
		}
		if len(p.Models) == 0 {
			return nil, fmt.Errorf("model catalog: provider %q has no models", p.ID)
		}
		for j := range p.Models {
			m := &p.Models[j]
			if m.ID == "" {
				return nil, fmt.Errorf("model catalog: provider %q has a model without id", p.ID)
			}
			if m.Label == "" {
				m.Label = m.ID
			}
		}
	}
	return &c, nil
}
