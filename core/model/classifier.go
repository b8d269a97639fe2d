package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/anomalab/edgegraph/core/engineerr"
)

// EdgeClassifier scores every edge of a graph with its anomalous-class
// probability. Implementations hold immutable weights and are safe for
// concurrent use. A zero-edge input yields an empty score slice and no
// error, since a lone-node graph is valid.
type EdgeClassifier interface {
	// Forward returns one probability in [0,1] per edge, aligned with the
	// edge list order.
	Forward(x *mat.Dense, edges [][2]int) ([]float64, error)

	// Architecture identifies the variant.
	Architecture() Architecture
}

// ImportanceScorer is the extended contract of architectures that can
// attribute structural importance to individual edges. Only the GSL
// variant implements it.
type ImportanceScorer interface {
	EdgeClassifier

	// ForwardWithWeights returns probabilities plus the learned adjacency
	// used to produce them.
	ForwardWithWeights(x *mat.Dense, edges [][2]int) ([]float64, *mat.Dense, error)

	// EdgeImportance maps a learned adjacency onto per-edge importance
	// values in [0,1], aligned with the edge list order.
	EdgeImportance(adj *mat.Dense, edges [][2]int) []float64
}

// NewEdgeClassifier constructs the configured variant. The architecture is
// dispatched exactly once here; the returned classifier never re-inspects
// it per call.
func NewEdgeClassifier(cfg Config) (EdgeClassifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Architecture {
	case ArchitectureBaseline:
		return newBaselineClassifier(cfg), nil
	case ArchitecturePrototype:
		return newPrototypeClassifier(cfg), nil
	case ArchitectureContrastive:
		return newContrastiveClassifier(cfg), nil
	case ArchitectureGSL:
		return newGSLClassifier(cfg), nil
	default:
		return nil, engineerr.NewConfigurationError(
			"construct", fmt.Sprintf("unknown architecture: %d", cfg.Architecture), nil,
		)
	}
}
