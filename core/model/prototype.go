package model

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// PrototypeClassifier scores edges by distance to learnable prototypes.
// Each class owns NumPrototypes prototype vectors in the projected edge
// space, so one class can cover several distinct behavior shapes. The class
// score is the negated squared distance to the nearest prototype of that
// class, softmaxed under the configured temperature.
type PrototypeClassifier struct {
	cfg     Config
	enc     *nodeEncoder
	project *LinearLayer

	// prototypes[class][k] is one prototype vector of length HiddenDim.
	prototypes [][][]float64
}

func newPrototypeClassifier(cfg Config) *PrototypeClassifier {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))

	c := &PrototypeClassifier{
		cfg:     cfg,
		enc:     newNodeEncoder(cfg, rng),
		project: newLinearLayer(rng, 2*cfg.HiddenDim, cfg.HiddenDim),
	}

	limit := math.Sqrt(3 / float64(cfg.HiddenDim))
	c.prototypes = make([][][]float64, cfg.NumClasses)
	for class := range c.prototypes {
		c.prototypes[class] = make([][]float64, cfg.NumPrototypes)
		for k := range c.prototypes[class] {
			p := make([]float64, cfg.HiddenDim)
			for d := range p {
				p[d] = (rng.Float64()*2 - 1) * limit
			}
			c.prototypes[class][k] = p
		}
	}

	return c
}

// Architecture implements EdgeClassifier.
func (c *PrototypeClassifier) Architecture() Architecture {
	return ArchitecturePrototype
}

// Forward implements EdgeClassifier.
func (c *PrototypeClassifier) Forward(x *mat.Dense, edges [][2]int) ([]float64, error) {
	if len(edges) == 0 {
		return []float64{}, nil
	}
	if err := validateInputs(c.cfg, x, edges); err != nil {
		return nil, err
	}

	numNodes, _ := x.Dims()
	normAdj := messagePassingAdjacency(numNodes, edges)

	h := c.enc.Encode(x, normAdj)
	z := c.project.Apply(edgeEmbeddings(h, edges))

	out := make([]float64, len(edges))
	scores := make([]float64, c.cfg.NumClasses)
	for i := range edges {
		row := rowSlice(z, i)
		for class := range scores {
			scores[class] = -c.nearestDistSq(class, row) / c.cfg.Temperature
		}
		out[i] = softmax(scores)[1]
	}

	if !allFinite(out) {
		return nil, errNonFinite()
	}
	return out, nil
}

// nearestDistSq returns min over the class's prototypes of ‖z − p‖².
func (c *PrototypeClassifier) nearestDistSq(class int, z []float64) float64 {
	best := math.Inf(1)
	for _, p := range c.prototypes[class] {
		var d float64
		for i := range z {
			diff := z[i] - p[i]
			d += diff * diff
		}
		if d < best {
			best = d
		}
	}
	return best
}
