package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultDataDir    = "data/geoparquet"
	defaultMetadataDB = "data/db/runs.db"
	defaultTimeoutMS  = 15000
)

// Load reads and validates the application configuration from path.
// Missing storage and fetch settings fall back to defaults; feeds are
// validated individually and must have unique names.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	v := validator.New()
	if err := v.Struct(cfg.Fetch); err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, f := range cfg.Feeds {
		if err := v.Struct(f); err != nil {
			return nil, fmt.Errorf("feed %q: %w", f.Name, err)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("duplicate feed name %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = defaultDataDir
	}
	if cfg.Storage.MetadataDB == "" {
		cfg.Storage.MetadataDB = defaultMetadataDB
	}
	if cfg.Fetch.TimeoutMS == 0 {
		cfg.Fetch.TimeoutMS = defaultTimeoutMS
	}
	return &cfg, nil
}
