// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file for Load.
const EnvironmentVariable = "DINSTALLER_CONFIG"

// Environment is the deployment type.
type Environment string

const (
	// Development runs on a developer machine, usually on the
	// session bus.
	Development Environment = "development"
	// Production runs inside the installation image.
	Production Environment = "production"
)

// Config is the configuration of the question service.
type Config struct {
	Environment Environment `yaml:"environment"`

	// StateDirectory holds the journal and the control socket by
	// default. Available to other paths as ${DINSTALLER_STATE}.
	StateDirectory string `yaml:"state_directory"`

	Bus       BusConfig       `yaml:"bus"`
	Socket    SocketConfig    `yaml:"socket"`
	Questions QuestionsConfig `yaml:"questions"`
	Journal   JournalConfig   `yaml:"journal"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`

	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides holds the fields an environment section can change.
type ConfigOverrides struct {
	Bus    *BusConfig    `yaml:"bus,omitempty"`
	Socket *SocketConfig `yaml:"socket,omitempty"`
	Log    *LogConfig    `yaml:"log,omitempty"`
}

// BusConfig selects the D-Bus connection.
type BusConfig struct {
	// Address is "system", "session" or a D-Bus address.
	// Default: system
	Address string `yaml:"address"`

	// Name is the well-known name to own.
	// Default: org.opensuse.DInstaller.Questions
	Name string `yaml:"name"`
}

// SocketConfig configures the local control socket.
type SocketConfig struct {
	// Path of the Unix socket. Empty disables the socket.
	// Default: ${DINSTALLER_STATE}/questions.sock
	Path string `yaml:"path"`

	// AllowedUIDs may connect besides the daemon's own user. Root is
	// always allowed.
	AllowedUIDs []uint32 `yaml:"allowed_uids"`
}

// QuestionsConfig configures how questions are answered.
type QuestionsConfig struct {
	// Interactive makes unmatched questions wait for a person. When
	// false they are answered with their default option.
	// Default: true
	Interactive bool `yaml:"interactive"`

	// AnswersFile holds predefined answers (YAML, JSONC, optionally
	// age-encrypted with a .age suffix).
	AnswersFile string `yaml:"answers_file"`

	// IdentityFile is the age identity for an encrypted AnswersFile.
	IdentityFile string `yaml:"identity_file"`

	// WaitTimeout bounds every wait for answers, as a Go duration.
	// "0" waits forever.
	// Default: 0
	WaitTimeout string `yaml:"wait_timeout"`
}

// JournalConfig configures the answer journal.
type JournalConfig struct {
	// Path of the SQLite database. Empty disables the journal.
	// Default: ${DINSTALLER_STATE}/journal.db
	Path string `yaml:"path"`
}

// StorageConfig configures the storage probing phase.
type StorageConfig struct {
	// ProbeLuks asks to unlock encrypted devices at startup.
	// Default: false
	ProbeLuks bool `yaml:"probe_luks"`

	// MaxAttempts bounds the passphrase prompts per device.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`
}

// LogConfig configures the daemon logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: debug (development), info (production)
	Level string `yaml:"level"`
}

// Default returns the configuration used as the base before the file
// is applied.
func Default() *Config {
	return &Config{
		Environment:    Development,
		StateDirectory: "/run/dinstaller",
		Bus: BusConfig{
			Address: "system",
			Name:    "org.opensuse.DInstaller.Questions",
		},
		Socket: SocketConfig{
			Path: "${DINSTALLER_STATE}/questions.sock",
		},
		Questions: QuestionsConfig{
			Interactive: true,
			WaitTimeout: "0",
		},
		Journal: JournalConfig{
			Path: "${DINSTALLER_STATE}/journal.db",
		},
		Storage: StorageConfig{
			MaxAttempts: 3,
		},
		Log: LogConfig{
			Level: "debug",
		},
	}
}

// Load loads the file named by DINSTALLER_CONFIG. It fails when the
// variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your configuration file, or use --config", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.ExpandVariables()
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &ConfigOverrides{
				Socket: &SocketConfig{AllowedUIDs: []uint32{}},
				Log:    &LogConfig{Level: "info"},
			}
		}
	}
	if overrides == nil {
		return
	}

	if overrides.Bus != nil {
		if overrides.Bus.Address != "" {
			c.Bus.Address = overrides.Bus.Address
		}
		if overrides.Bus.Name != "" {
			c.Bus.Name = overrides.Bus.Name
		}
	}
	if overrides.Socket != nil {
		if overrides.Socket.Path != "" {
			c.Socket.Path = overrides.Socket.Path
		}
		// A present (even empty) list replaces the base list.
		if overrides.Socket.AllowedUIDs != nil {
			c.Socket.AllowedUIDs = overrides.Socket.AllowedUIDs
		}
	}
	if overrides.Log != nil && overrides.Log.Level != "" {
		c.Log.Level = overrides.Log.Level
	}
}

// ExpandVariables expands ${VAR} and ${VAR:-default} in path fields.
// LoadFile calls it; callers building a Config by hand call it
// themselves.
func (c *Config) ExpandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.StateDirectory = expandVars(c.StateDirectory, vars)
	vars["DINSTALLER_STATE"] = c.StateDirectory

	c.Socket.Path = expandVars(c.Socket.Path, vars)
	c.Journal.Path = expandVars(c.Journal.Path, vars)
	c.Questions.AnswersFile = expandVars(c.Questions.AnswersFile, vars)
	c.Questions.IdentityFile = expandVars(c.Questions.IdentityFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// WaitTimeoutDuration parses Questions.WaitTimeout. Validate reports
// malformed values; this returns zero for them.
func (c *Config) WaitTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Questions.WaitTimeout)
	if err != nil {
		return 0
	}
	return d
}

// Validate checks the configuration and reports every problem.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Bus.Address == "" {
		errs = append(errs, errors.New("bus.address is required"))
	}
	if c.Bus.Name == "" {
		errs = append(errs, errors.New("bus.name is required"))
	}
	if d, err := time.ParseDuration(c.Questions.WaitTimeout); err != nil {
		errs = append(errs, fmt.Errorf("questions.wait_timeout: %w", err))
	} else if d < 0 {
		errs = append(errs, errors.New("questions.wait_timeout must not be negative"))
	}
	if c.Questions.IdentityFile != "" && c.Questions.AnswersFile == "" {
		errs = append(errs, errors.New("questions.identity_file is set without questions.answers_file"))
	}
	if c.Storage.MaxAttempts < 1 || c.Storage.MaxAttempts > 255 {
		errs = append(errs, fmt.Errorf("storage.max_attempts must be between 1 and 255, got %d", c.Storage.MaxAttempts))
	}
	levels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levels))
	}

	return errors.Join(errs...)
}
