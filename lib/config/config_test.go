// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dinstaller.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	cfg.ExpandVariables()

	if cfg.Environment != Development {
		t.Errorf("environment = %s, want development", cfg.Environment)
	}
	if cfg.Bus.Name != "org.opensuse.DInstaller.Questions" {
		t.Errorf("bus.name = %s", cfg.Bus.Name)
	}
	if cfg.Socket.Path != "/run/dinstaller/questions.sock" {
		t.Errorf("socket.path = %s", cfg.Socket.Path)
	}
	if cfg.Journal.Path != "/run/dinstaller/journal.db" {
		t.Errorf("journal.path = %s", cfg.Journal.Path)
	}
	if !cfg.Questions.Interactive {
		t.Error("expected interactive by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadRequiresEnvironmentVariable(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error when DINSTALLER_CONFIG is not set")
	}
	if !strings.HasPrefix(err.Error(), "DINSTALLER_CONFIG environment variable not set") {
		t.Errorf("error = %q", err)
	}
}

func TestLoadFromEnvironmentVariable(t *testing.T) {
	path := writeConfig(t, `
state_directory: /tmp/dinstaller-state
bus:
  address: session
questions:
  interactive: false
  wait_timeout: 90s
storage:
  probe_luks: true
  max_attempts: 5
`)
	t.Setenv(EnvironmentVariable, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bus.Address != "session" {
		t.Errorf("bus.address = %s", cfg.Bus.Address)
	}
	if cfg.Questions.Interactive {
		t.Error("interactive not overridden")
	}
	if cfg.WaitTimeoutDuration() != 90*time.Second {
		t.Errorf("wait timeout = %v", cfg.WaitTimeoutDuration())
	}
	if !cfg.Storage.ProbeLuks || cfg.Storage.MaxAttempts != 5 {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	// Unset fields keep their defaults, expanded against the new state
	// directory.
	if cfg.Socket.Path != "/tmp/dinstaller-state/questions.sock" {
		t.Errorf("socket.path = %s", cfg.Socket.Path)
	}
	if cfg.Bus.Name != "org.opensuse.DInstaller.Questions" {
		t.Errorf("bus.name = %s", cfg.Bus.Name)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Run("development section", func(t *testing.T) {
		path := writeConfig(t, `
environment: development
development:
  bus:
    address: unix:path=/tmp/test-bus
  log:
    level: warn
`)
		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile: %v", err)
		}
		if cfg.Bus.Address != "unix:path=/tmp/test-bus" || cfg.Log.Level != "warn" {
			t.Errorf("overrides not applied: bus=%s log=%s", cfg.Bus.Address, cfg.Log.Level)
		}
	})

	t.Run("production defaults", func(t *testing.T) {
		path := writeConfig(t, `
environment: production
socket:
  allowed_uids: [1000]
`)
		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile: %v", err)
		}
		if cfg.Log.Level != "info" {
			t.Errorf("log.level = %s, want info", cfg.Log.Level)
		}
		if len(cfg.Socket.AllowedUIDs) != 0 {
			t.Errorf("allowed_uids = %v, want none in production", cfg.Socket.AllowedUIDs)
		}
	})

	t.Run("production section", func(t *testing.T) {
		path := writeConfig(t, `
environment: production
socket:
  allowed_uids: [1000]
production:
  socket:
    allowed_uids: [1000, 1001]
`)
		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile: %v", err)
		}
		if !slices.Equal(cfg.Socket.AllowedUIDs, []uint32{1000, 1001}) {
			t.Errorf("allowed_uids = %v", cfg.Socket.AllowedUIDs)
		}
		// An explicit section replaces the production defaults.
		if cfg.Log.Level != "debug" {
			t.Errorf("log.level = %s, want debug", cfg.Log.Level)
		}
	})
}

func TestExpandVars(t *testing.T) {
	t.Setenv("DINSTALLER_TEST_DIR", "/srv/answers")
	vars := map[string]string{"DINSTALLER_STATE": "/run/x"}
	tests := []struct {
		input string
		want  string
	}{
		{"${DINSTALLER_STATE}/journal.db", "/run/x/journal.db"},
		{"${DINSTALLER_TEST_DIR}/answers.yaml", "/srv/answers/answers.yaml"},
		{"${DINSTALLER_MISSING:-/etc/fallback}", "/etc/fallback"},
		{"${DINSTALLER_MISSING}", ""},
		{"/plain/path", "/plain/path"},
	}
	for _, test := range tests {
		if got := expandVars(test.input, vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Environment = "staging"
	cfg.Bus.Name = ""
	cfg.Questions.WaitTimeout = "soon"
	cfg.Questions.IdentityFile = "/etc/key.txt"
	cfg.Storage.MaxAttempts = 0
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{
		"invalid environment: staging",
		"bus.name is required",
		"questions.wait_timeout",
		"identity_file is set without",
		"storage.max_attempts",
		"log.level must be one of",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error lacks %q:\n%v", want, err)
		}
	}

	cfg = Default()
	cfg.Questions.WaitTimeout = "-1s"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "must not be negative") {
		t.Errorf("negative timeout: %v", err)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
	path := writeConfig(t, "bus: [not, a, map]\n")
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
