// Package config loads the engine's layered configuration: compiled-in
// defaults, then the user config file, then the project file, then an
// explicitly named file, then EDGEGRAPH_* environment overrides. Enum-like
// fields stay strings here; the command layer converts them into the typed
// configs of the model and service packages.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"

	"gopkg.in/yaml.v3"
)

const (
	projectFile = "edgegraph.yaml"
	userSubdir  = "edgegraph"
)

// Manager owns an atomically swapped configuration snapshot. Get is safe
// from any goroutine while Load or Reload replaces the snapshot.
type Manager struct {
	configPtr unsafe.Pointer
	path      string
	watchers  []func(*Config)
	watcherMu sync.RWMutex
}

// Config is the full engine configuration.
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Encoder  EncoderConfig  `yaml:"encoder"`
	Audit    AuditConfig    `yaml:"audit"`
	Clinical ClinicalConfig `yaml:"clinical"`
	Service  ServiceConfig  `yaml:"service"`
}

// ModelConfig selects and parameterizes the classifier architecture.
type ModelConfig struct {
	Architecture      string  `yaml:"architecture"`
	InputDim          int     `yaml:"input_dim"`
	HiddenDim         int     `yaml:"hidden_dim"`
	NumClasses        int     `yaml:"num_classes"`
	Dropout           float64 `yaml:"dropout"`
	Seed              uint64  `yaml:"seed"`
	NumPrototypes     int     `yaml:"num_prototypes"`
	Temperature       float64 `yaml:"temperature"`
	ProjectionDim     int     `yaml:"projection_dim"`
	BlendRatio        float64 `yaml:"blend_ratio"`
	SparsifyThreshold float64 `yaml:"sparsify_threshold"`
	MessagePassing    string  `yaml:"message_passing"`
}

// EncoderConfig tunes the node feature encoder.
type EncoderConfig struct {
	Dim        int     `yaml:"dim"`
	NoiseScale float64 `yaml:"noise_scale"`
	CacheSize  int     `yaml:"cache_size"`
}

// AuditConfig carries entity classification rules for the audit path.
// An empty rule list means the built-in rules.
type AuditConfig struct {
	TypeRules []TypeRule `yaml:"type_rules"`
}

// TypeRule maps a glob pattern over entity identifiers to a node type name.
type TypeRule struct {
	Pattern string `yaml:"pattern"`
	Type    string `yaml:"type"`
}

// ClinicalConfig extends the built-in clinical knowledge tables.
type ClinicalConfig struct {
	ExtraInteractions []Interaction `yaml:"extra_interactions"`
	ExtraHighRisk     []string      `yaml:"extra_high_risk"`
	ExtraChronic      []string      `yaml:"extra_chronic"`
}

// Interaction declares one drug-drug interaction with a severity name.
type Interaction struct {
	DrugA    string `yaml:"drug_a"`
	DrugB    string `yaml:"drug_b"`
	Severity string `yaml:"severity"`
}

// ServiceConfig tunes the scoring facade.
type ServiceConfig struct {
	// Threshold is the default anomaly decision threshold; per-invocation
	// flags override it.
	Threshold    float64 `yaml:"threshold"`
	DisableCache bool    `yaml:"disable_cache"`
	LogLevel     string  `yaml:"log_level"`
}

// NewManager creates a manager seeded with defaults. path names an explicit
// config file applied on Load; empty means only the default file locations
// are consulted.
func NewManager(path string) *Manager {
	m := &Manager{path: path}
	cfg := DefaultConfig()
	atomic.StorePointer(&m.configPtr, unsafe.Pointer(cfg))
	return m
}

// DefaultConfig returns the compiled-in defaults. Model values mirror the
// model package defaults so a configless run and a zero-value file agree.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Architecture:      "gsl",
			InputDim:          16,
			HiddenDim:         32,
			NumClasses:        2,
			Dropout:           0.1,
			Seed:              42,
			NumPrototypes:     4,
			Temperature:       1.0,
			ProjectionDim:     16,
			BlendRatio:        0.5,
			SparsifyThreshold: 0.0,
			MessagePassing:    "graph_conv",
		},
		Encoder: EncoderConfig{
			Dim:        16,
			NoiseScale: 0.1,
			CacheSize:  4096,
		},
		Service: ServiceConfig{
			Threshold: 0.5,
			LogLevel:  "info",
		},
	}
}

// Get returns the current snapshot. The returned value must be treated as
// read-only.
func (m *Manager) Get() *Config {
	return (*Config)(atomic.LoadPointer(&m.configPtr))
}

// Load rebuilds the snapshot from defaults, config files, and environment.
// Missing default-location files are skipped; a missing explicit file is an
// error.
func (m *Manager) Load() error {
	cfg := DefaultConfig()

	if err := m.loadUserConfig(cfg); err != nil {
		return fmt.Errorf("user config: %w", err)
	}

	if err := m.loadYAMLFile(projectFile, cfg, false); err != nil {
		return fmt.Errorf("project config: %w", err)
	}

	if m.path != "" {
		if err := m.loadYAMLFile(m.path, cfg, true); err != nil {
			return fmt.Errorf("config %s: %w", m.path, err)
		}
	}

	m.applyEnvironment(cfg)

	atomic.StorePointer(&m.configPtr, unsafe.Pointer(cfg))
	m.notifyWatchers(cfg)

	return nil
}

// Reload re-runs Load over the same locations.
func (m *Manager) Reload() error {
	return m.Load()
}

// OnChange registers a callback invoked after every successful Load.
func (m *Manager) OnChange(fn func(*Config)) {
	m.watcherMu.Lock()
	m.watchers = append(m.watchers, fn)
	m.watcherMu.Unlock()
}

func (m *Manager) notifyWatchers(cfg *Config) {
	m.watcherMu.RLock()
	watchers := m.watchers
	m.watcherMu.RUnlock()

	for _, fn := range watchers {
		fn(cfg)
	}
}

func (m *Manager) loadUserConfig(cfg *Config) error {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	return m.loadYAMLFile(filepath.Join(dir, userSubdir, "config.yaml"), cfg, false)
}

func (m *Manager) loadYAMLFile(path string, cfg *Config, required bool) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !required {
		return nil
	}
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func (m *Manager) applyEnvironment(cfg *Config) {
	if v := os.Getenv("EDGEGRAPH_MODEL_ARCHITECTURE"); v != "" {
		cfg.Model.Architecture = v
	}
	if v := os.Getenv("EDGEGRAPH_MODEL_SEED"); v != "" {
		if n, err := parseUint(v); err == nil {
			cfg.Model.Seed = n
		}
	}
	if v := os.Getenv("EDGEGRAPH_MODEL_HIDDEN_DIM"); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.Model.HiddenDim = n
		}
	}
	if v := os.Getenv("EDGEGRAPH_MODEL_MESSAGE_PASSING"); v != "" {
		cfg.Model.MessagePassing = v
	}
	if v := os.Getenv("EDGEGRAPH_ENCODER_NOISE_SCALE"); v != "" {
		if f, err := parseFloat(v); err == nil {
			cfg.Encoder.NoiseScale = f
		}
	}
	if v := os.Getenv("EDGEGRAPH_SERVICE_THRESHOLD"); v != "" {
		if f, err := parseFloat(v); err == nil {
			cfg.Service.Threshold = f
		}
	}
	if v := os.Getenv("EDGEGRAPH_SERVICE_LOG_LEVEL"); v != "" {
		cfg.Service.LogLevel = v
	}
	if v := os.Getenv("EDGEGRAPH_SERVICE_DISABLE_CACHE"); v != "" {
		cfg.Service.DisableCache = strings.ToLower(v) == "true"
	}
}

// Overlay copies the non-zero scalar fields and non-empty slices of src
// over dst. Zero-valued src fields leave dst untouched, so a partial
// override built from command-line flags only replaces what was set.
func Overlay(dst, src *Config) {
	overlayModel(&dst.Model, &src.Model)
	overlayEncoder(&dst.Encoder, &src.Encoder)

	if len(src.Audit.TypeRules) > 0 {
		dst.Audit.TypeRules = src.Audit.TypeRules
	}
	if len(src.Clinical.ExtraInteractions) > 0 {
		dst.Clinical.ExtraInteractions = src.Clinical.ExtraInteractions
	}
	if len(src.Clinical.ExtraHighRisk) > 0 {
		dst.Clinical.ExtraHighRisk = src.Clinical.ExtraHighRisk
	}
	if len(src.Clinical.ExtraChronic) > 0 {
		dst.Clinical.ExtraChronic = src.Clinical.ExtraChronic
	}

	if src.Service.Threshold != 0 {
		dst.Service.Threshold = src.Service.Threshold
	}
	if src.Service.DisableCache {
		dst.Service.DisableCache = true
	}
	if src.Service.LogLevel != "" {
		dst.Service.LogLevel = src.Service.LogLevel
	}
}

func overlayModel(dst, src *ModelConfig) {
	if src.Architecture != "" {
		dst.Architecture = src.Architecture
	}
	if src.InputDim != 0 {
		dst.InputDim = src.InputDim
	}
	if src.HiddenDim != 0 {
		dst.HiddenDim = src.HiddenDim
	}
	if src.NumClasses != 0 {
		dst.NumClasses = src.NumClasses
	}
	if src.Dropout != 0 {
		dst.Dropout = src.Dropout
	}
	if src.Seed != 0 {
		dst.Seed = src.Seed
	}
	if src.NumPrototypes != 0 {
		dst.NumPrototypes = src.NumPrototypes
	}
	if src.Temperature != 0 {
		dst.Temperature = src.Temperature
	}
	if src.ProjectionDim != 0 {
		dst.ProjectionDim = src.ProjectionDim
	}
	if src.BlendRatio != 0 {
		dst.BlendRatio = src.BlendRatio
	}
	if src.SparsifyThreshold != 0 {
		dst.SparsifyThreshold = src.SparsifyThreshold
	}
	if src.MessagePassing != "" {
		dst.MessagePassing = src.MessagePassing
	}
}

func overlayEncoder(dst, src *EncoderConfig) {
	if src.Dim != 0 {
		dst.Dim = src.Dim
	}
	if src.NoiseScale != 0 {
		dst.NoiseScale = src.NoiseScale
	}
	if src.CacheSize != 0 {
		dst.CacheSize = src.CacheSize
	}
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

func parseUint(s string) (uint64, error) {
	var n uint64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

func parseFloat(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(s, "%f", &f)
	return f, err
}
