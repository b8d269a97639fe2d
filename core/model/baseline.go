package model

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// BaselineClassifier is the reference architecture: encoder, endpoint
// concatenation, MLP, sigmoid on the anomalous logit.
type BaselineClassifier struct {
	cfg  Config
	enc  *nodeEncoder
	head *mlpHead
}

func newBaselineClassifier(cfg Config) *BaselineClassifier {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	return &BaselineClassifier{
		cfg:  cfg,
		enc:  newNodeEncoder(cfg, rng),
		head: newMLPHead(rng, 2*cfg.HiddenDim, cfg.HiddenDim, cfg.NumClasses),
	}
}

// Architecture implements EdgeClassifier.
func (c *BaselineClassifier) Architecture() Architecture {
	return ArchitectureBaseline
}

// Forward implements EdgeClassifier.
func (c *BaselineClassifier) Forward(x *mat.Dense, edges [][2]int) ([]float64, error) {
	if len(edges) == 0 {
		return []float64{}, nil
	}
	if err := validateInputs(c.cfg, x, edges); err != nil {
		return nil, err
	}

	numNodes, _ := x.Dims()
	normAdj := messagePassingAdjacency(numNodes, edges)

	h := c.enc.Encode(x, normAdj)
	logits := c.head.logits(edgeEmbeddings(h, edges))

	out := make([]float64, len(edges))
	for i := range out {
		out[i] = sigmoid(logits.At(i, 1))
	}

	if !allFinite(out) {
		return nil, errNonFinite()
	}
	return out, nil
}
