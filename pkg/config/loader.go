// Package config loads form configuration documents (JSON or YAML), checks
// the load-time invariants of a FormConfig and binds remote sources declared
// by OpenAPI operationId.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/model"
)

// ErrEmptyDocument is returned when a configuration document has no content.
var ErrEmptyDocument = errors.New("config: document is empty")

// Load reads and validates the configuration stored at path.
func Load(path string) (*model.FormConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return LoadBytes(data, path)
}

// LoadFS reads and validates the configuration stored at path inside fsys.
func LoadFS(fsys fs.FS, path string) (*model.FormConfig, error) {
	if fsys == nil {
		return nil, fmt.Errorf("config: filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return LoadBytes(data, path)
}

// LoadBytes parses a JSON or YAML document and validates it. name is only used
// in error messages and to prefer YAML decoding for .yaml/.yml files.
func LoadBytes(data []byte, name string) (*model.FormConfig, error) {
	cfg, err := Parse(data, name)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a document without validating it. JSON is attempted first and
// YAML is the fallback.
func Parse(data []byte, name string) (*model.FormConfig, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, name)
	}

	var cfg model.FormConfig
	jsonErr := json.Unmarshal(data, &cfg)
	if jsonErr == nil {
		return &cfg, nil
	}

	cfg = model.FormConfig{}
	yamlErr := yaml.Unmarshal(data, &cfg)
	if yamlErr == nil {
		return &cfg, nil
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return nil, fmt.Errorf("config: parse %s: %w", name, jsonErr)
	default:
		return nil, fmt.Errorf("config: parse %s: %w", name, yamlErr)
	}
}
