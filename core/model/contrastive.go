package model

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// ContrastiveClassifier pairs a classification head with an L2-normalized
// projection head. The projection space is shaped during training by a
// supervised contrastive objective; inference reads only the
// classification head.
type ContrastiveClassifier struct {
	cfg       Config
	enc       *nodeEncoder
	edgeMLP   *LinearLayer
	classHead *LinearLayer
	projHead  *LinearLayer
}

func newContrastiveClassifier(cfg Config) *ContrastiveClassifier {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	return &ContrastiveClassifier{
		cfg:       cfg,
		enc:       newNodeEncoder(cfg, rng),
		edgeMLP:   newLinearLayer(rng, 2*cfg.HiddenDim, cfg.HiddenDim),
		classHead: newLinearLayer(rng, cfg.HiddenDim, cfg.NumClasses),
		projHead:  newLinearLayer(rng, cfg.HiddenDim, cfg.ProjectionDim),
	}
}

// Architecture implements EdgeClassifier.
func (c *ContrastiveClassifier) Architecture() Architecture {
	return ArchitectureContrastive
}

// Forward implements EdgeClassifier.
func (c *ContrastiveClassifier) Forward(x *mat.Dense, edges [][2]int) ([]float64, error) {
	if len(edges) == 0 {
		return []float64{}, nil
	}
	if err := validateInputs(c.cfg, x, edges); err != nil {
		return nil, err
	}

	z := c.edgeFeatures(x, edges)
	return anomalousFromLogits(c.classHead.Apply(z))
}

// Projections returns the L2-normalized projection per edge, the
// representation the contrastive objective operates on. Zero edges yield a
// nil matrix.
func (c *ContrastiveClassifier) Projections(x *mat.Dense, edges [][2]int) (*mat.Dense, error) {
	if len(edges) == 0 {
		return nil, nil
	}
	if err := validateInputs(c.cfg, x, edges); err != nil {
		return nil, err
	}

	p := c.projHead.Apply(c.edgeFeatures(x, edges))
	normalizeRowsL2(p)
	return p, nil
}

func (c *ContrastiveClassifier) edgeFeatures(x *mat.Dense, edges [][2]int) *mat.Dense {
	numNodes, _ := x.Dims()
	normAdj := messagePassingAdjacency(numNodes, edges)

	h := c.enc.Encode(x, normAdj)
	z := c.edgeMLP.Apply(edgeEmbeddings(h, edges))
	reluInPlace(z)
	return z
}

// normalizeRowsL2 scales each row to unit Euclidean norm. Zero rows are
// left untouched.
func normalizeRowsL2(m *mat.Dense) {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		var norm float64
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			continue
		}
		for j := 0; j < cols; j++ {
			m.Set(i, j, m.At(i, j)/norm)
		}
	}
}

// SupConLoss evaluates the supervised contrastive objective over
// L2-normalized projections: temperature-scaled cosine similarities with
// the diagonal masked, averaging -log of the positive-pair likelihood over
// each anchor's same-label set. Anchors with no positives are skipped.
// Forward-only; used to evaluate projection-space quality.
func SupConLoss(projections *mat.Dense, labels []int, temperature float64) float64 {
	if projections == nil || temperature <= 0 {
		return 0
	}
	n, _ := projections.Dims()
	if n < 2 || len(labels) != n {
		return 0
	}

	// Rows are unit-norm, so the dot product is the cosine similarity.
	var sim mat.Dense
	sim.Mul(projections, projections.T())

	var total float64
	var anchors int

	for i := 0; i < n; i++ {
		var denom float64
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			denom += math.Exp(sim.At(i, j) / temperature)
		}
		if denom == 0 {
			continue
		}

		var posSum float64
		var posCount int
		for j := 0; j < n; j++ {
			if j == i || labels[j] != labels[i] {
				continue
			}
			posSum += math.Log(math.Exp(sim.At(i, j)/temperature) / denom)
			posCount++
		}
		if posCount == 0 {
			continue
		}

		total += -posSum / float64(posCount)
		anchors++
	}

	if anchors == 0 {
		return 0
	}
	return total / float64(anchors)
}
