package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// isolateUserConfig points the user config lookup at an empty directory so
// a developer's real config cannot leak into assertions.
func isolateUserConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model.Architecture != "gsl" {
		t.Errorf("Model.Architecture: got %s, want gsl", cfg.Model.Architecture)
	}
	if cfg.Model.InputDim != 16 {
		t.Errorf("Model.InputDim: got %d, want 16", cfg.Model.InputDim)
	}
	if cfg.Model.Seed != 42 {
		t.Errorf("Model.Seed: got %d, want 42", cfg.Model.Seed)
	}
	if cfg.Encoder.NoiseScale != 0.1 {
		t.Errorf("Encoder.NoiseScale: got %v, want 0.1", cfg.Encoder.NoiseScale)
	}
	if cfg.Service.Threshold != 0.5 {
		t.Errorf("Service.Threshold: got %v, want 0.5", cfg.Service.Threshold)
	}
	if cfg.Service.DisableCache {
		t.Error("Service.DisableCache should default to false")
	}
}

func TestManagerGet(t *testing.T) {
	m := NewManager("")

	cfg := m.Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}
	if cfg.Model.Architecture != "gsl" {
		t.Errorf("default architecture should be gsl, got %s", cfg.Model.Architecture)
	}
}

func TestManagerLoadFromFile(t *testing.T) {
	isolateUserConfig(t)

	configContent := `
model:
  architecture: prototype
  hidden_dim: 64
encoder:
  noise_scale: 0.2
service:
  threshold: 0.7
clinical:
  extra_high_risk:
    - methadone
`
	configPath := filepath.Join(t.TempDir(), "edgegraph.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	m := NewManager(configPath)
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := m.Get()
	if cfg.Model.Architecture != "prototype" {
		t.Errorf("Architecture: got %s, want prototype", cfg.Model.Architecture)
	}
	if cfg.Model.HiddenDim != 64 {
		t.Errorf("HiddenDim: got %d, want 64", cfg.Model.HiddenDim)
	}
	if cfg.Model.InputDim != 16 {
		t.Errorf("InputDim should keep its default, got %d", cfg.Model.InputDim)
	}
	if cfg.Encoder.NoiseScale != 0.2 {
		t.Errorf("NoiseScale: got %v, want 0.2", cfg.Encoder.NoiseScale)
	}
	if cfg.Service.Threshold != 0.7 {
		t.Errorf("Threshold: got %v, want 0.7", cfg.Service.Threshold)
	}
	if len(cfg.Clinical.ExtraHighRisk) != 1 || cfg.Clinical.ExtraHighRisk[0] != "methadone" {
		t.Errorf("ExtraHighRisk: got %v, want [methadone]", cfg.Clinical.ExtraHighRisk)
	}
}

func TestManagerLoadMissingExplicitFile(t *testing.T) {
	isolateUserConfig(t)

	m := NewManager(filepath.Join(t.TempDir(), "nope.yaml"))

	if err := m.Load(); err == nil {
		t.Fatal("Load should fail for a missing explicit config file")
	}
}

func TestManagerEnvironmentOverride(t *testing.T) {
	isolateUserConfig(t)

	t.Setenv("EDGEGRAPH_MODEL_ARCHITECTURE", "contrastive")
	t.Setenv("EDGEGRAPH_MODEL_SEED", "1337")
	t.Setenv("EDGEGRAPH_SERVICE_THRESHOLD", "0.8")
	t.Setenv("EDGEGRAPH_SERVICE_DISABLE_CACHE", "TRUE")

	m := NewManager("")
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := m.Get()
	if cfg.Model.Architecture != "contrastive" {
		t.Errorf("Architecture: got %s, want contrastive", cfg.Model.Architecture)
	}
	if cfg.Model.Seed != 1337 {
		t.Errorf("Seed: got %d, want 1337", cfg.Model.Seed)
	}
	if cfg.Service.Threshold != 0.8 {
		t.Errorf("Threshold: got %v, want 0.8", cfg.Service.Threshold)
	}
	if !cfg.Service.DisableCache {
		t.Error("DisableCache should be true")
	}
}

func TestManagerEnvironmentIgnoresGarbage(t *testing.T) {
	isolateUserConfig(t)

	t.Setenv("EDGEGRAPH_MODEL_SEED", "not-a-number")
	t.Setenv("EDGEGRAPH_SERVICE_THRESHOLD", "high")

	m := NewManager("")
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := m.Get()
	if cfg.Model.Seed != 42 {
		t.Errorf("Seed should keep its default, got %d", cfg.Model.Seed)
	}
	if cfg.Service.Threshold != 0.5 {
		t.Errorf("Threshold should keep its default, got %v", cfg.Service.Threshold)
	}
}

func TestManagerUserConfig(t *testing.T) {
	userDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", userDir)

	sub := filepath.Join(userDir, "edgegraph")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "config.yaml"), []byte("model:\n  seed: 99"), 0644); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	m := NewManager("")
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Get().Model.Seed != 99 {
		t.Errorf("Seed: got %d, want 99", m.Get().Model.Seed)
	}
}

func TestManagerOnChange(t *testing.T) {
	isolateUserConfig(t)

	m := NewManager("")

	called := false
	m.OnChange(func(cfg *Config) {
		called = true
	})

	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !called {
		t.Error("OnChange callback should have been called")
	}
}

func TestManagerReload(t *testing.T) {
	isolateUserConfig(t)

	configPath := filepath.Join(t.TempDir(), "edgegraph.yaml")
	if err := os.WriteFile(configPath, []byte("model:\n  hidden_dim: 24"), 0644); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	m := NewManager(configPath)
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Get().Model.HiddenDim != 24 {
		t.Errorf("Initial HiddenDim: got %d, want 24", m.Get().Model.HiddenDim)
	}

	if err := os.WriteFile(configPath, []byte("model:\n  hidden_dim: 48"), 0644); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if err := m.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if m.Get().Model.HiddenDim != 48 {
		t.Errorf("Reloaded HiddenDim: got %d, want 48", m.Get().Model.HiddenDim)
	}
}

func TestOverlay(t *testing.T) {
	dst := DefaultConfig()
	src := &Config{}
	src.Model.Architecture = "baseline"
	src.Model.Seed = 7
	src.Service.Threshold = 0.9
	src.Clinical.ExtraChronic = []string{"osteoporosis"}

	Overlay(dst, src)

	if dst.Model.Architecture != "baseline" {
		t.Errorf("Architecture: got %s, want baseline", dst.Model.Architecture)
	}
	if dst.Model.Seed != 7 {
		t.Errorf("Seed: got %d, want 7", dst.Model.Seed)
	}
	if dst.Model.HiddenDim != 32 {
		t.Errorf("HiddenDim should keep its default, got %d", dst.Model.HiddenDim)
	}
	if dst.Service.Threshold != 0.9 {
		t.Errorf("Threshold: got %v, want 0.9", dst.Service.Threshold)
	}
	if dst.Service.LogLevel != "info" {
		t.Errorf("LogLevel should keep its default, got %s", dst.Service.LogLevel)
	}
	if len(dst.Clinical.ExtraChronic) != 1 || dst.Clinical.ExtraChronic[0] != "osteoporosis" {
		t.Errorf("ExtraChronic: got %v, want [osteoporosis]", dst.Clinical.ExtraChronic)
	}
}

func TestOverlayZeroSourceKeepsDefaults(t *testing.T) {
	dst := DefaultConfig()
	Overlay(dst, &Config{})

	want := DefaultConfig()
	if !reflect.DeepEqual(dst, want) {
		t.Errorf("zero-value overlay changed the config: got %+v", dst)
	}
}
