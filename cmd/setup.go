// Package cmd provides CLI commands for the edgegraph engine.
// This file implements the composition helpers shared by the commands:
// resolving the layered configuration, applying root flag overrides, and
// assembling a scoring service.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/anomalab/edgegraph/core/audit"
	"github.com/anomalab/edgegraph/core/clinical"
	"github.com/anomalab/edgegraph/core/config"
	"github.com/anomalab/edgegraph/core/encode"
	"github.com/anomalab/edgegraph/core/graph"
	"github.com/anomalab/edgegraph/core/model"
	"github.com/anomalab/edgegraph/core/service"
)

// loadEngineConfig loads the configuration layers and applies the root
// persistent flags on top.
func loadEngineConfig() (*config.Config, error) {
	mgr := config.NewManager(rootConfigPath)
	if err := mgr.Load(); err != nil {
		return nil, err
	}

	cfg := *mgr.Get()

	override := &config.Config{}
	override.Model.Architecture = rootArchitecture
	override.Model.Seed = rootSeed
	if rootVerbose {
		override.Service.LogLevel = "debug"
	}
	config.Overlay(&cfg, override)

	return &cfg, nil
}

// buildService assembles the scoring service from a resolved configuration.
func buildService(cfg *config.Config) (*service.Service, error) {
	modelCfg, err := modelFromConfig(cfg.Model)
	if err != nil {
		return nil, err
	}

	encoder, err := encode.New(&encode.Config{
		Dim:        cfg.Encoder.Dim,
		NoiseScale: cfg.Encoder.NoiseScale,
		CacheSize:  cfg.Encoder.CacheSize,
	})
	if err != nil {
		return nil, err
	}

	rules, err := typeRulesFromConfig(cfg.Audit.TypeRules)
	if err != nil {
		return nil, err
	}

	tables, err := tablesFromConfig(cfg.Clinical)
	if err != nil {
		return nil, err
	}

	return service.New(&service.Config{
		Model:        modelCfg,
		Encoder:      encoder,
		TypeRules:    rules,
		Tables:       tables,
		Logger:       newLogger(cfg.Service.LogLevel),
		DisableCache: cfg.Service.DisableCache,
	})
}

func modelFromConfig(mc config.ModelConfig) (model.Config, error) {
	arch, err := model.ParseArchitecture(mc.Architecture)
	if err != nil {
		return model.Config{}, err
	}

	mp, err := model.ParseMessagePassing(mc.MessagePassing)
	if err != nil {
		return model.Config{}, err
	}

	return model.Config{
		Architecture:      arch,
		InputDim:          mc.InputDim,
		HiddenDim:         mc.HiddenDim,
		NumClasses:        mc.NumClasses,
		Dropout:           mc.Dropout,
		Seed:              mc.Seed,
		NumPrototypes:     mc.NumPrototypes,
		Temperature:       mc.Temperature,
		ProjectionDim:     mc.ProjectionDim,
		BlendRatio:        mc.BlendRatio,
		SparsifyThreshold: mc.SparsifyThreshold,
		MessagePassing:    mp,
	}, nil
}

func typeRulesFromConfig(rules []config.TypeRule) ([]audit.TypeRule, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	out := make([]audit.TypeRule, 0, len(rules))
	for _, r := range rules {
		nt, err := graph.ParseNodeType(r.Type)
		if err != nil {
			return nil, fmt.Errorf("audit rule %q: %w", r.Pattern, err)
		}
		out = append(out, audit.TypeRule{Pattern: r.Pattern, Type: nt})
	}
	return out, nil
}

// tablesFromConfig returns nil when nothing extends the built-in tables so
// the service falls back to its defaults.
func tablesFromConfig(cc config.ClinicalConfig) (*clinical.Tables, error) {
	if len(cc.ExtraInteractions) == 0 && len(cc.ExtraHighRisk) == 0 && len(cc.ExtraChronic) == 0 {
		return nil, nil
	}

	tables := clinical.DefaultTables()
	for _, in := range cc.ExtraInteractions {
		sev, err := clinical.ParseSeverity(in.Severity)
		if err != nil {
			return nil, fmt.Errorf("interaction %s/%s: %w", in.DrugA, in.DrugB, err)
		}
		tables.AddInteraction(in.DrugA, in.DrugB, sev)
	}
	for _, m := range cc.ExtraHighRisk {
		tables.AddHighRisk(m)
	}
	for _, c := range cc.ExtraChronic {
		tables.AddChronic(c)
	}
	return tables, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
