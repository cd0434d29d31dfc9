package runtimeconfig

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvPublicKey = "OPENAGENDA_PUBLIC_KEY"
	EnvBaseURL   = "OPENAGENDA_BASE_URL"
)

// Load decodes the YAML file at path on top of DefaultConfig. Keys missing
// from the file keep their default.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return cfg, fmt.Errorf("openagenda config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("openagenda config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides remote credentials from the environment. lookup has the
// signature of os.LookupEnv.
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		return
	}
	if value, ok := lookup(EnvPublicKey); ok && strings.TrimSpace(value) != "" {
		cfg.Remote.PublicKey = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvBaseURL); ok && strings.TrimSpace(value) != "" {
		cfg.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(value), "/")
	}
}
