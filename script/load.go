package script

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Default returns the built-in portfolio script.
func Default() *Script {
	s, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("script: built-in script is invalid: %v", err))
	}
	return s
}

// DefaultYAML returns the raw built-in script, used as a starting point for
// personal scripts.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultYAML))
	copy(out, defaultYAML)
	return out
}

// Parse decodes and validates a YAML script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("script: parse: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads a script file. An empty path yields the built-in script.
func Load(path string) (*Script, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Marshal encodes s back to YAML.
func Marshal(s *Script) ([]byte, error) {
	return yaml.Marshal(s)
}
