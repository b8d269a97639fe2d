package model

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// GraphStructureLearner infers a latent adjacency from node features via
// scaled dot-product attention: A = sigmoid(Q·Kᵗ/√d) from independent
// linear projections Q and K. Entries at or below sigmoid(thresholdParam)
// are dropped, and the surviving structure is blended with the original
// adjacency when one is supplied.
type GraphStructureLearner struct {
	q *LinearLayer
	k *LinearLayer

	thresholdParam float64
	blendRatio     float64
	scale          float64
}

func newGraphStructureLearner(cfg Config, rng *rand.Rand) *GraphStructureLearner {
	return &GraphStructureLearner{
		q:              newLinearLayer(rng, cfg.InputDim, cfg.HiddenDim),
		k:              newLinearLayer(rng, cfg.InputDim, cfg.HiddenDim),
		thresholdParam: cfg.SparsifyThreshold,
		blendRatio:     cfg.BlendRatio,
		scale:          1 / math.Sqrt(float64(cfg.HiddenDim)),
	}
}

// Learn computes the blended learned adjacency for node features x.
// original may be nil, in which case the sparsified attention matrix is
// returned unblended. Every entry lies in [0,1] as long as the original
// adjacency does.
func (l *GraphStructureLearner) Learn(x *mat.Dense, original *mat.Dense) *mat.Dense {
	q := l.q.Apply(x)
	k := l.k.Apply(x)

	var attn mat.Dense
	attn.Mul(q, k.T())
	attn.Scale(l.scale, &attn)
	attn.Apply(func(_, _ int, v float64) float64 {
		return sigmoid(v)
	}, &attn)

	// Sparsify: keep only confident entries.
	tau := sigmoid(l.thresholdParam)
	attn.Apply(func(_, _ int, v float64) float64 {
		if v > tau {
			return v
		}
		return 0
	}, &attn)

	if original == nil {
		return &attn
	}

	n, _ := attn.Dims()
	blended := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			blended.Set(i, j, l.blendRatio*attn.At(i, j)+(1-l.blendRatio)*original.At(i, j))
		}
	}
	return blended
}
