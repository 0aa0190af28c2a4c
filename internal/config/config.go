package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	Instance               string `yaml:"instance,omitempty"`
	Username               string `yaml:"username"`
	Database               string `yaml:"database"`
	Encrypt                string `yaml:"encrypt,omitempty"`
	TrustServerCertificate bool   `yaml:"trust_server_certificate,omitempty"`
	AzureTenantID          string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID          string `yaml:"azure_client_id,omitempty"`
	GoogleInstance         string `yaml:"google_instance,omitempty"`
}

// StageConfig overrides settings for a single deployment stage, matched by
// stage name (tables, data, constraints, indexes, keys, programmables, users).
type StageConfig struct {
	Name      string `yaml:"name"`
	MaxPasses int    `yaml:"max_passes,omitempty"`
	Skip      bool   `yaml:"skip,omitempty"`
}

type CloneConfig struct {
	IncludeData bool          `yaml:"include_data"`
	MaxPasses   int           `yaml:"max_passes,omitempty"`
	ScriptDir   string        `yaml:"script_dir,omitempty"`
	Stages      []StageConfig `yaml:"stages,omitempty"`
}

type ProjectConfig struct {
	// Source and Destination are default connection strings for clone runs,
	// overridable with --source/--destination flags or MSTOOLS_SOURCE /
	// MSTOOLS_DESTINATION environment variables.
	Source      string           `yaml:"source,omitempty"`
	Destination string           `yaml:"destination,omitempty"`
	Connection  ConnectionConfig `yaml:"connection"`
	Clone       CloneConfig      `yaml:"clone"`
	Timeout     string           `yaml:"timeout"`
}

const ConfigFileName = "mstools.yaml"

func Load(dir string) (*ProjectConfig, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// StageOverride returns the override entry for the named stage, or nil when
// the config has none.
func (c *CloneConfig) StageOverride(name string) *StageConfig {
	for i := range c.Stages {
		if c.Stages[i].Name == name {
			return &c.Stages[i]
		}
	}
	return nil
}
