// Package config loads the picoSensors configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration of the service.
type Config struct {
	// Bind and Port form the HTTP listen address.
	Bind string `yaml:"bind"`
	Port string `yaml:"port"`

	// UpdateTimeout bounds one refresh of every backend.
	UpdateTimeout time.Duration `yaml:"update_timeout"`

	// SysfsRoot is where sysfs is mounted. Tests point it elsewhere.
	SysfsRoot string `yaml:"sysfs_root"`

	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log_level"`

	// SensorsEnabled is the initial enabled flag of every discovered sensor.
	SensorsEnabled bool `yaml:"sensors_enabled"`

	Backends Backends `yaml:"backends"`
}

// Backends holds one section per sensor backend.
type Backends struct {
	Nvidia    Tool    `yaml:"nvidia"`
	AMD       Switch  `yaml:"amd"`
	UDisks2   Timed   `yaml:"udisks2"`
	ATASmart  Tool    `yaml:"atasmart"`
	HDDTemp   HDDTemp `yaml:"hddtemp"`
	LMSensors Switch  `yaml:"lmsensors"`
	CPU       Switch  `yaml:"cpu"`
	Memory    Switch  `yaml:"memory"`
}

// Switch turns a backend on or off.
type Switch struct {
	Enabled bool `yaml:"enabled"`
}

// Timed is a backend whose queries are bounded.
type Timed struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

// Tool is a backend that runs an external binary.
type Tool struct {
	Enabled bool          `yaml:"enabled"`
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

// HDDTemp configures the hddtemp daemon client.
type HDDTemp struct {
	Enabled bool          `yaml:"enabled"`
	Address string        `yaml:"address"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Bind:           "0.0.0.0",
		Port:           "8080",
		UpdateTimeout:  5 * time.Second,
		SysfsRoot:      "/sys",
		LogLevel:       "info",
		SensorsEnabled: true,
		Backends: Backends{
			Nvidia:    Tool{Enabled: true, Path: "nvidia-smi", Timeout: 2 * time.Second},
			AMD:       Switch{Enabled: true},
			UDisks2:   Timed{Enabled: true, Timeout: 2 * time.Second},
			ATASmart:  Tool{Enabled: true, Path: "smartctl", Timeout: 2 * time.Second},
			HDDTemp:   HDDTemp{Enabled: true, Address: "127.0.0.1:7634", Timeout: time.Second},
			LMSensors: Switch{Enabled: true},
			CPU:       Switch{Enabled: true},
			Memory:    Switch{Enabled: true},
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s does not exist", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port must be set")
	}
	if c.UpdateTimeout <= 0 {
		return fmt.Errorf("update_timeout must be positive, got %s", c.UpdateTimeout)
	}
	if c.SysfsRoot == "" {
		return errors.New("sysfs_root must be set")
	}
	b := c.Backends
	for name, d := range map[string]time.Duration{
		"nvidia":   b.Nvidia.Timeout,
		"udisks2":  b.UDisks2.Timeout,
		"atasmart": b.ATASmart.Timeout,
		"hddtemp":  b.HDDTemp.Timeout,
	} {
		if d <= 0 {
			return fmt.Errorf("backends.%s.timeout must be positive, got %s", name, d)
		}
	}
	if b.Nvidia.Enabled && b.Nvidia.Path == "" {
		return errors.New("backends.nvidia.path must be set")
	}
	if b.ATASmart.Enabled && b.ATASmart.Path == "" {
		return errors.New("backends.atasmart.path must be set")
	}
	if b.HDDTemp.Enabled && b.HDDTemp.Address == "" {
		return errors.New("backends.hddtemp.address must be set")
	}
	return nil
}
