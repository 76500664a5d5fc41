package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models plantline.yml.
type Config struct {
	Plant struct {
		ID   string `yaml:"id"`
		Kind string `yaml:"kind"`
	} `yaml:"plant"`
	WorkOrders struct {
		NumberPrefix    string `yaml:"number_prefix"`
		DefaultPriority string `yaml:"default_priority"`
		DefaultType     string `yaml:"default_type"`
		ListLimit       int    `yaml:"list_limit"`
	} `yaml:"workorders"`
	Schedules struct {
		DueSoonDays int `yaml:"due_soon_days"`
	} `yaml:"schedules"`
}

var validPriorities = map[string]bool{"low": true, "medium": true, "high": true, "emergency": true}
var validTypes = map[string]bool{"preventive": true, "corrective": true, "breakdown": true}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create with pl plant init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Plant.ID == "" {
		return fmt.Errorf("config.plant.id is required")
	}
	if c.Plant.Kind != "maintenance-plant" {
		return fmt.Errorf("config.plant.kind must be 'maintenance-plant'")
	}
	if c.WorkOrders.NumberPrefix == "" {
		return fmt.Errorf("config.workorders.number_prefix is required")
	}
	if !validPriorities[c.WorkOrders.DefaultPriority] {
		return fmt.Errorf("config.workorders.default_priority %q is not a known priority", c.WorkOrders.DefaultPriority)
	}
	if !validTypes[c.WorkOrders.DefaultType] {
		return fmt.Errorf("config.workorders.default_type %q is not a known type", c.WorkOrders.DefaultType)
	}
	if c.WorkOrders.ListLimit < 0 {
		return fmt.Errorf("config.workorders.list_limit must not be negative")
	}
	if c.Schedules.DueSoonDays < 0 {
		return fmt.Errorf("config.schedules.due_soon_days must not be negative")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "plantline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(plantID string) string {
	return fmt.Sprintf(defaultTemplate, plantID)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for a plant.
func Default(plantID string) *Config {
	var cfg Config
	cfg.Plant.ID = plantID
	cfg.Plant.Kind = "maintenance-plant"
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, plantID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `plant:
  id: %s
  kind: maintenance-plant

workorders:
  number_prefix: WO
  default_priority: medium
  default_type: corrective
  list_limit: 50

schedules:
  due_soon_days: 7
`
