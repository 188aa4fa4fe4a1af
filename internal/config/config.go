// Package config loads the optional pgreap.yaml project file.
//
// Every field is optional: an absent value falls through to the environment
// or the built-in default during resolution.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	Username            string `yaml:"username"`
	MaintenanceDatabase string `yaml:"maintenance_database"`
	SSLMode             string `yaml:"sslmode"`
	AuthMethod          string `yaml:"auth_method,omitempty"`
	AzureTenantID       string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID       string `yaml:"azure_client_id,omitempty"`
	AWSRegion           string `yaml:"aws_region,omitempty"`
	GoogleInstance      string `yaml:"google_instance,omitempty"`
}

// ReapConfig holds defaults for the reap command.
type ReapConfig struct {
	Pattern     string `yaml:"pattern"`
	MaxParallel int    `yaml:"max_parallel"`
	Backend     string `yaml:"backend"`
	CallTimeout string `yaml:"call_timeout"`
	FailOnError bool   `yaml:"fail_on_error"`
	Schedule    string `yaml:"schedule"`
}

// SecretsConfig holds defaults for the ci-secrets command.
type SecretsConfig struct {
	File string `yaml:"file"`
	Key  string `yaml:"key"`
	Env  string `yaml:"env"`
}

type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Reap       ReapConfig       `yaml:"reap"`
	Secrets    SecretsConfig    `yaml:"secrets"`
}

// CallTimeout parses reap.call_timeout. An empty value yields zero.
func (c *ProjectConfig) CallTimeout() (time.Duration, error) {
	if c == nil || c.Reap.CallTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Reap.CallTimeout)
	if err != nil {
		return 0, fmt.Errorf("reap.call_timeout %q: %w", c.Reap.CallTimeout, err)
	}
	return d, nil
}

const ConfigFileName = "pgreap.yaml"

// Load reads pgreap.yaml from dir.
func Load(dir string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads a project config from an explicit path.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}
