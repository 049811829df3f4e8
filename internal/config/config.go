package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds project-level settings loaded from reconcile.yml.
type ProjectConfig struct {
	AgentEndpoint string   `yaml:"agentEndpoint,omitempty"`
	DisableAI     bool     `yaml:"disableAI,omitempty"`
	Languages     []string `yaml:"languages,omitempty"`
	Concurrency   int      `yaml:"concurrency,omitempty"`
	Verbose       bool     `yaml:"verbose,omitempty"`
}

// Load attempts to read reconcile.yml or reconcile.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"reconcile.yml", "reconcile.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}
