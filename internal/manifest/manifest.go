// Package manifest loads entity descriptors from YAML manifest files, the
// declarative way to describe a mapping schema outside application code.
package manifest

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cascade-orm/cascade/schema"
)

// Manifest is a set of entity declarations loaded from a YAML document
type Manifest struct {
	Entities []schema.EntityDescriptor `yaml:"entities"`
}

// Load reads and parses a manifest file
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse parses a YAML manifest document. Unknown fields are rejected so a
// typo in a property name fails loudly instead of silently dropping it.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(m.Entities) == 0 {
		return nil, fmt.Errorf("manifest declares no entities")
	}
	for i, ent := range m.Entities {
		if ent.Name == "" {
			return nil, fmt.Errorf("entity %d has no name", i)
		}
	}
	return &m, nil
}

// Source builds a schema source over the manifest's entities. Duplicate
// entity names are rejected here.
func (m *Manifest) Source() (schema.Source, error) {
	return schema.NewStaticSource(m.Entities...)
}

// Registry compiles every declared entity into a fresh registry
func (m *Manifest) Registry() (*schema.Registry, error) {
	source, err := m.Source()
	if err != nil {
		return nil, err
	}

	registry := schema.New(source)
	for _, ent := range m.Entities {
		if _, err := registry.Register(ent.Name); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
