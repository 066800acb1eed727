package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by WithDefaults.
const (
	DefaultMaxExpansions = 100000
	DefaultStorePath     = ".docplan/plans.kz"
)

// ProjectConfig holds project-level settings loaded from docplan.yml.
type ProjectConfig struct {
	// CatalogPath is a YAML rule catalog. Empty selects the builtin catalog.
	CatalogPath string `yaml:"catalogPath,omitempty"`
	// MaxExpansions bounds the search per item. Zero selects
	// DefaultMaxExpansions; a negative value means unbounded.
	MaxExpansions int `yaml:"maxExpansions,omitempty"`
	// Timeout bounds the search for each item, e.g. "2s".
	Timeout   string `yaml:"timeout,omitempty"`
	Workers   int    `yaml:"workers,omitempty"`
	StorePath string `yaml:"storePath,omitempty"`
	Verbose   bool   `yaml:"verbose,omitempty"`
}

// Load attempts to read docplan.yml or docplan.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"docplan.yml", "docplan.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", name, err)
		}
		if _, err := cfg.ItemTimeout(); err != nil {
			return nil, fmt.Errorf("config: %s: %w", name, err)
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

// WithDefaults returns a copy of c with unset fields filled in.
func (c ProjectConfig) WithDefaults() ProjectConfig {
	if c.MaxExpansions == 0 {
		c.MaxExpansions = DefaultMaxExpansions
	}
	if c.StorePath == "" {
		c.StorePath = DefaultStorePath
	}
	return c
}

// ItemTimeout parses Timeout. An empty value means no timeout.
func (c ProjectConfig) ItemTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: negative", c.Timeout)
	}
	return d, nil
}
