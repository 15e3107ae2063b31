package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func tempConfigPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "config.json")
}

func writeTestConfig(t *testing.T, path string, cfg *Config) {
	t.Helper()
	if err := Save(path, cfg); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
}

func TestLoad_WritesDefaults(t *testing.T) {
	path := tempConfigPath(t)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxSpikes != 100 {
		t.Errorf("expected default max_spikes=100, got %d", cfg.MaxSpikes)
	}
	if !cfg.Journal.Enabled {
		t.Error("expected journal enabled by default")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("defaults not written: %v", err)
	}
}

func TestSave_ReloadRoundTrip(t *testing.T) {
	path := tempConfigPath(t)

	original := &Config{
		DataDir:       "/tmp/test-data",
		LogLevel:      "debug",
		MaxSpikes:     250,
		MaxConcurrent: 4,
	}
	original.Metrics.Enabled = true

	if err := Save(path, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.DataDir != original.DataDir {
		t.Errorf("DataDir mismatch: %v != %v", loaded.DataDir, original.DataDir)
	}
	if loaded.LogLevel != original.LogLevel {
		t.Errorf("LogLevel mismatch: %v != %v", loaded.LogLevel, original.LogLevel)
	}
	if loaded.MaxSpikes != original.MaxSpikes {
		t.Errorf("MaxSpikes mismatch: %v != %v", loaded.MaxSpikes, original.MaxSpikes)
	}
	if loaded.Journal.Enabled {
		t.Error("Journal.Enabled should stay false as saved")
	}
	if !loaded.Metrics.Enabled {
		t.Error("Metrics.Enabled mismatch")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := tempConfigPath(t)
	writeTestConfig(t, path, &Config{LogLevel: "info", MaxSpikes: 100})

	t.Setenv("SPIKECLUST_LOG_LEVEL", "debug")
	t.Setenv("SPIKECLUST_MAX_SPIKES", "40")
	t.Setenv("SPIKECLUST_DATA_DIR", "/tmp/env-data")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.MaxSpikes != 40 || cfg.DataDir != "/tmp/env-data" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestLoad_InvalidMaxSpikesEnv(t *testing.T) {
	path := tempConfigPath(t)
	t.Setenv("SPIKECLUST_MAX_SPIKES", "lots")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid SPIKECLUST_MAX_SPIKES")
	}
}

func TestSave_AtomicWrite(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "info"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Verify no temp file left behind
	tmpPath := path + ".tmp"
	if _, err := os.Stat(tmpPath); !os.IsNotExist(err) {
		t.Errorf("temp file should not exist after successful save")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Errorf("saved file is not valid JSON: %v", err)
	}
}

func TestListValues(t *testing.T) {
	cfg := &Config{LogLevel: "warn", MaxSpikes: 64}
	cfg.Journal.Enabled = true

	flat, err := ListValues(cfg)
	if err != nil {
		t.Fatalf("ListValues failed: %v", err)
	}
	if flat["log_level"] != "warn" {
		t.Errorf("expected log_level=warn, got %v", flat["log_level"])
	}
	// JSON numbers are float64
	if flat["max_spikes"] != float64(64) {
		t.Errorf("expected max_spikes=64, got %v", flat["max_spikes"])
	}
	if flat["journal.enabled"] != true {
		t.Errorf("expected journal.enabled=true, got %v", flat["journal.enabled"])
	}
}

func TestGetValue_UnknownKey(t *testing.T) {
	path := tempConfigPath(t)
	writeTestConfig(t, path, &Config{LogLevel: "info"})

	_, err := GetValue(path, "nonexistent.key")
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
	expected := "unknown config key: nonexistent.key"
	if err.Error() != expected {
		t.Errorf("expected error %q, got %q", expected, err.Error())
	}
}

func TestSetValue_TypedValues(t *testing.T) {
	path := tempConfigPath(t)
	writeTestConfig(t, path, &Config{LogLevel: "info", MaxSpikes: 100})

	for key, raw := range map[string]string{
		"max_spikes":      "16",
		"metrics.enabled": "true",
		"log_level":       "debug",
		"custom.setting":  "value",
	} {
		if err := SetValue(path, key, raw); err != nil {
			t.Fatalf("SetValue(%s) failed: %v", key, err)
		}
	}

	want := map[string]any{
		"max_spikes":      float64(16),
		"metrics.enabled": true,
		"log_level":       "debug",
		"custom.setting":  "value",
	}
	for key, expected := range want {
		v, err := GetValue(path, key)
		if err != nil {
			t.Fatalf("GetValue(%s) failed: %v", key, err)
		}
		if v != expected {
			t.Errorf("expected %s=%v, got %v (%T)", key, expected, v, v)
		}
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxSpikes != 16 || !cfg.Metrics.Enabled {
		t.Errorf("typed values not visible through Load: %+v", cfg)
	}
}

func TestSetValue_NonexistentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist", "config.json")
	if err := SetValue(path, "log_level", "debug"); err == nil {
		t.Fatal("expected error for nonexistent file, got nil")
	}
}

func TestGetValue_NonexistentFile(t *testing.T) {
	path := tempConfigPath(t)

	// Load creates the file with defaults
	v, err := GetValue(path, "log_level")
	if err != nil {
		t.Fatalf("GetValue on new config failed: %v", err)
	}
	if v != "info" {
		t.Errorf("expected default log_level=info, got %v", v)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "config.json")

	if err := Save(path, &Config{LogLevel: "warn"}); err != nil {
		t.Fatalf("Save should create parent directory, got: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file should exist: %v", err)
	}
}
