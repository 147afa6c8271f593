package policy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fika/fika-prep/pkg/taxonomy"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// FileName is the policy document name inside the planner directory.
const FileName = "policy.yaml"

// Parse decodes and validates a policy document.
func Parse(content []byte, tax taxonomy.Taxonomy) (Config, error) {
	var doc interface{}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return Config{}, fmt.Errorf("failed to parse policy YAML: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode policy: %w", err)
	}
	if err := cfg.Check(tax); err != nil {
		return Config{}, fmt.Errorf("invalid policy: %w", err)
	}

	return cfg, nil
}

// Load reads the policy document at path.
func Load(path string, tax taxonomy.Taxonomy) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read policy %s: %w", path, err)
	}

	cfg, err := Parse(content, tax)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, keeping theme order.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create policy directory: %w", err)
	}

	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode policy: %w", err)
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write policy %s: %w", path, err)
	}
	return nil
}

// EnsurePolicy loads the policy at path, writing DefaultConfig first when the file is missing.
// An existing file is never overwritten so hand edits survive reruns.
func EnsurePolicy(path string, tax taxonomy.Taxonomy) (Config, error) {
	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Info().Str("path", path).Msg("Writing default planner policy")
		if err := Save(path, DefaultConfig()); err != nil {
			return Config{}, err
		}
	case err != nil:
		return Config{}, fmt.Errorf("failed to stat policy %s: %w", path, err)
	}

	return Load(path, tax)
}
