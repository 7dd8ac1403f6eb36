package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("catalog.schema.json", schemaJSON)
	})
	return schema, schemaErr
}

type document struct {
	Upgrades []Upgrade `yaml:"upgrades"`
}

// Load reads a YAML catalog file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML (or JSON) catalog document, validates it against the
// catalog schema, and builds the Catalog.
func Parse(raw []byte) (*Catalog, error) {
	if err := validate(raw); err != nil {
		return nil, err
	}
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(doc.Upgrades...)
}

func validate(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile catalog schema: %w", err)
	}

	// Route the YAML tree through JSON so the validator sees JSON-native types.
	var tree any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}
	asJSON, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("catalog to json: %w", err)
	}
	var v any
	if err := json.Unmarshal(asJSON, &v); err != nil {
		return fmt.Errorf("catalog to json: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("validate catalog: %w", err)
	}
	return nil
}
