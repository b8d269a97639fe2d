// Package encode maps graph entities to deterministic fixed-length feature
// vectors. Encoding is a pure function of (external id, node type, metadata):
// identical inputs always produce bit-identical vectors, so a small LRU cache
// in front of the arithmetic is semantically transparent.
package encode

import (
	"math"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/viterin/vek"

	"github.com/anomalab/edgegraph/core/graph"
)

const (
	defaultDim        = 16
	defaultNoiseScale = 0.1
	defaultCacheSize  = 4096

	// Dimension layout. Dims [0, typeRegionDims) carry the type indicator,
	// the named dims carry explicit domain signals, the rest carry only the
	// per-type base pattern plus noise.
	typeRegionDims = 8
	dimHighRisk    = 8
	dimChronic     = 9
	dimAbnormal    = 10
	dimNumeric     = 11
	dimSeverity    = 12
)

// Metadata keys the encoder reads for explicit signal dimensions.
const (
	MetaHighRisk   = "high_risk"
	MetaChronic    = "chronic"
	MetaAbnormal   = "abnormal"
	MetaAge        = "age"
	MetaDosageNorm = "dosage_norm"
	MetaValueNorm  = "value_norm"
	MetaSeverity   = "severity"
)

// Config configures the feature encoder.
type Config struct {
	// Dim is the feature vector length. Signal dimensions that do not fit
	// are dropped; the default of 16 holds them all with headroom.
	Dim int

	// NoiseScale bounds the per-dimension identity jitter.
	NoiseScale float64

	// CacheSize is the number of encoded vectors kept in the LRU cache.
	// Zero picks the default; a negative value disables caching.
	CacheSize int
}

func applyDefaults(config *Config) *Config {
	cfg := &Config{
		Dim:        defaultDim,
		NoiseScale: defaultNoiseScale,
		CacheSize:  defaultCacheSize,
	}

	if config == nil {
		return cfg
	}

	if config.Dim > 0 {
		cfg.Dim = config.Dim
	}
	if config.NoiseScale > 0 {
		cfg.NoiseScale = config.NoiseScale
	}
	if config.CacheSize != 0 {
		cfg.CacheSize = config.CacheSize
	}

	return cfg
}

// Encoder produces deterministic feature vectors for typed graph entities.
// Safe for concurrent use.
type Encoder struct {
	dim        int
	noiseScale float64
	cache      *lru.Cache[string, []float64]
}

// New creates an Encoder with the given configuration.
func New(config *Config) (*Encoder, error) {
	cfg := applyDefaults(config)

	e := &Encoder{
		dim:        cfg.Dim,
		noiseScale: cfg.NoiseScale,
	}

	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, []float64](cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		e.cache = cache
	}

	return e, nil
}

// Dim returns the feature vector length.
func (e *Encoder) Dim() int {
	return e.dim
}

// Encode maps an entity to its feature vector. The result is a fresh slice
// the caller owns. Unknown or invalid types fall back to the unknown base
// pattern; the output never contains NaN or Inf.
func (e *Encoder) Encode(externalID string, t graph.NodeType, meta map[string]string) []float64 {
	if !t.IsValid() {
		t = graph.NodeTypeUnknown
	}

	key := ""
	if e.cache != nil {
		key = cacheKey(externalID, t, meta)
		if vec, ok := e.cache.Get(key); ok {
			out := make([]float64, len(vec))
			copy(out, vec)
			return out
		}
	}

	vec := e.baseVector(t)

	// Identity jitter: a stable 64-bit hash of the external id seeds the
	// PRNG, so the same id always lands on the same point near its type's
	// base pattern while distinct ids stay separable.
	seed := xxhash.Sum64String(externalID)
	rng := rand.New(rand.NewPCG(seed, seed))

	noise := make([]float64, e.dim)
	for i := range noise {
		noise[i] = rng.Float64()*2 - 1
	}
	vek.MulNumber_Inplace(noise, e.noiseScale)
	vek.Add_Inplace(vec, noise)

	e.applySignals(vec, meta)

	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			vec[i] = 0
		}
	}

	if e.cache != nil {
		stored := make([]float64, len(vec))
		copy(stored, vec)
		e.cache.Add(key, stored)
	}

	return vec
}

// baseVector returns the constant per-type pattern: a low per-type bias on
// every dimension plus a one-hot type indicator in the type region.
func (e *Encoder) baseVector(t graph.NodeType) []float64 {
	vec := make([]float64, e.dim)

	bias := 0.05 * float64(int(t)+1)
	for i := range vec {
		vec[i] = bias
	}

	slot := int(t)
	if slot >= 0 && slot < typeRegionDims && slot < e.dim {
		vec[slot] = 1.0
	}

	return vec
}

// applySignals overwrites the explicit signal dimensions from metadata.
// Absent keys leave the base-plus-noise value in place.
func (e *Encoder) applySignals(vec []float64, meta map[string]string) {
	if len(meta) == 0 {
		return
	}

	if meta[MetaHighRisk] == "true" && dimHighRisk < e.dim {
		vec[dimHighRisk] = 1.0
	}
	if meta[MetaChronic] == "true" && dimChronic < e.dim {
		vec[dimChronic] = 1.0
	}
	if meta[MetaAbnormal] == "true" && dimAbnormal < e.dim {
		vec[dimAbnormal] = 1.0
	}

	if dimNumeric < e.dim {
		if v, ok := parseFinite(meta[MetaValueNorm]); ok {
			vec[dimNumeric] = clamp01(v)
		} else if v, ok := parseFinite(meta[MetaDosageNorm]); ok {
			vec[dimNumeric] = clamp01(v)
		} else if v, ok := parseFinite(meta[MetaAge]); ok {
			vec[dimNumeric] = clamp01(v / 100)
		}
	}

	if dimSeverity < e.dim {
		if v, ok := parseFinite(meta[MetaSeverity]); ok {
			vec[dimSeverity] = clamp01(v)
		}
	}
}

// parseFinite parses a metadata value as a finite float. Missing,
// unparseable, or non-finite values report false.
func parseFinite(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// cacheKey builds a deterministic fingerprint over id, type, and metadata.
// Metadata keys are sorted so map iteration order cannot leak into the key.
func cacheKey(externalID string, t graph.NodeType, meta map[string]string) string {
	var b strings.Builder
	b.WriteString(externalID)
	b.WriteByte(0)
	b.WriteString(t.String())

	if len(meta) > 0 {
		keys := make([]string, 0, len(meta))
		for k := range meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteByte(0)
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(meta[k])
		}
	}

	return b.String()
}
