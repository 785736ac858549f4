package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile supplies flag defaults from a YAML file, so recurring load jobs
// do not repeat the same invocation. Explicit flags always win over
// profile values.
type Profile struct {
	Catalog string `yaml:"catalog"`
	Store   string `yaml:"store"`
	Out     string `yaml:"out"`
	Batch   int    `yaml:"batch"`
	Jobs    int    `yaml:"jobs"`
}

// LoadProfile reads and strictly decodes a profile file; unknown keys are
// an error so typos do not silently fall back to defaults.
func LoadProfile(path string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var p Profile
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return &p, nil
}
