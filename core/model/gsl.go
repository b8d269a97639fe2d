package model

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// GSLClassifier runs two parallel branches: a learned-graph branch that
// message-passes over the adjacency inferred by the GraphStructureLearner,
// and an original-graph branch running the standard encoder over the
// supplied edges. Edge embeddings from both branches are concatenated
// (4·HiddenDim) before the decision head. The learned adjacency doubles as
// a per-edge structural importance signal, which the other architectures
// cannot provide.
type GSLClassifier struct {
	cfg     Config
	learner *GraphStructureLearner

	// learned-graph branch weights, applied after aggregation rounds
	learned1 *LinearLayer
	learned2 *LinearLayer

	origEnc *nodeEncoder
	head    *mlpHead
}

func newGSLClassifier(cfg Config) *GSLClassifier {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	return &GSLClassifier{
		cfg:      cfg,
		learner:  newGraphStructureLearner(cfg, rng),
		learned1: newLinearLayer(rng, cfg.InputDim, cfg.HiddenDim),
		learned2: newLinearLayer(rng, cfg.HiddenDim, cfg.HiddenDim),
		origEnc:  newNodeEncoder(cfg, rng),
		head:     newMLPHead(rng, 4*cfg.HiddenDim, cfg.HiddenDim, cfg.NumClasses),
	}
}

// Architecture implements EdgeClassifier.
func (c *GSLClassifier) Architecture() Architecture {
	return ArchitectureGSL
}

// Forward implements EdgeClassifier.
func (c *GSLClassifier) Forward(x *mat.Dense, edges [][2]int) ([]float64, error) {
	probs, _, err := c.ForwardWithWeights(x, edges)
	return probs, err
}

// ForwardWithWeights scores edges and also returns the learned adjacency
// the scores were computed under, for structural explanations.
func (c *GSLClassifier) ForwardWithWeights(x *mat.Dense, edges [][2]int) ([]float64, *mat.Dense, error) {
	if len(edges) == 0 {
		return []float64{}, nil, nil
	}
	if err := validateInputs(c.cfg, x, edges); err != nil {
		return nil, nil, err
	}

	numNodes, _ := x.Dims()
	original := buildAdjacency(numNodes, edges)
	learned := c.learner.Learn(x, original)

	// Aggregation copy: the returned adjacency stays free of self-loops
	// and normalization so importance reads raw learned structure.
	msg := mat.DenseCopyOf(learned)
	addSelfLoops(msg)
	normalizeRows(msg)

	hLearned := c.learnedBranch(x, msg)

	normOrig := mat.DenseCopyOf(original)
	addSelfLoops(normOrig)
	normalizeRows(normOrig)
	hOrig := c.origEnc.Encode(x, normOrig)

	e := concatColumns(edgeEmbeddings(hLearned, edges), edgeEmbeddings(hOrig, edges))
	probs, err := anomalousFromLogits(c.head.logits(e))
	if err != nil {
		return nil, nil, err
	}
	return probs, learned, nil
}

// learnedBranch runs two rounds of h = msg·h·W with ReLU after each.
func (c *GSLClassifier) learnedBranch(x, msg *mat.Dense) *mat.Dense {
	var agg mat.Dense
	agg.Mul(msg, x)
	h := c.learned1.Apply(&agg)
	reluInPlace(h)

	var agg2 mat.Dense
	agg2.Mul(msg, h)
	h = c.learned2.Apply(&agg2)
	reluInPlace(h)
	return h
}

// EdgeImportance reads the structural importance of each edge from a
// learned adjacency: the surviving attention weight between its endpoints.
// Out-of-range endpoints or a nil adjacency score zero.
func (c *GSLClassifier) EdgeImportance(adj *mat.Dense, edges [][2]int) []float64 {
	out := make([]float64, len(edges))
	if adj == nil {
		return out
	}

	n, _ := adj.Dims()
	for i, e := range edges {
		if e[0] < 0 || e[0] >= n || e[1] < 0 || e[1] >= n {
			continue
		}
		v := adj.At(e[0], e[1])
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		out[i] = v
	}
	return out
}

// concatColumns joins two equally-tall matrices side by side.
func concatColumns(a, b *mat.Dense) *mat.Dense {
	rows, aCols := a.Dims()
	_, bCols := b.Dims()

	out := mat.NewDense(rows, aCols+bCols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < aCols; j++ {
			out.Set(i, j, a.At(i, j))
		}
		for j := 0; j < bCols; j++ {
			out.Set(i, aCols+j, b.At(i, j))
		}
	}
	return out
}
