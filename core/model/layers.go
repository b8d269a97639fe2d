package model

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// MessagePassingLayer is one round of the node encoder. Implementations are
// chosen at construction time, so the forward path never has to inspect
// what kind of layer it holds.
type MessagePassingLayer interface {
	// Forward transforms node features x (numNodes × in) into
	// (numNodes × out). normAdj is the degree-normalized adjacency;
	// layers that do not aggregate neighbors ignore it.
	Forward(x, normAdj *mat.Dense) *mat.Dense
}

// =============================================================================
// Linear Layer
// =============================================================================

// LinearLayer is an affine transform y = x·W + b.
type LinearLayer struct {
	w *mat.Dense
	b []float64
}

// newLinearLayer initializes W (in × out) with Glorot scaling:
// uniform in [-limit, limit] where limit = sqrt(6/(in+out)). Bias is zero.
func newLinearLayer(rng *rand.Rand, in, out int) *LinearLayer {
	limit := math.Sqrt(6 / float64(in+out))

	data := make([]float64, in*out)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}

	return &LinearLayer{
		w: mat.NewDense(in, out, data),
		b: make([]float64, out),
	}
}

// Apply computes x·W + b.
func (l *LinearLayer) Apply(x *mat.Dense) *mat.Dense {
	var y mat.Dense
	y.Mul(x, l.w)

	rows, cols := y.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			y.Set(i, j, y.At(i, j)+l.b[j])
		}
	}
	return &y
}

// Forward implements MessagePassingLayer without neighbor aggregation.
func (l *LinearLayer) Forward(x, _ *mat.Dense) *mat.Dense {
	return l.Apply(x)
}

// =============================================================================
// Graph Convolution Layer
// =============================================================================

// GraphConvLayer aggregates degree-normalized neighbor features before the
// affine transform: h = normAdj·x·W + b.
type GraphConvLayer struct {
	lin *LinearLayer
}

func newGraphConvLayer(rng *rand.Rand, in, out int) *GraphConvLayer {
	return &GraphConvLayer{lin: newLinearLayer(rng, in, out)}
}

// Forward implements MessagePassingLayer with neighbor aggregation.
func (l *GraphConvLayer) Forward(x, normAdj *mat.Dense) *mat.Dense {
	if normAdj == nil {
		return l.lin.Apply(x)
	}

	var agg mat.Dense
	agg.Mul(normAdj, x)
	return l.lin.Apply(&agg)
}

// newMessagePassingLayer builds one encoder round for the configured
// strategy.
func newMessagePassingLayer(strategy MessagePassing, rng *rand.Rand, in, out int) MessagePassingLayer {
	if strategy == MessagePassingLinear {
		return newLinearLayer(rng, in, out)
	}
	return newGraphConvLayer(rng, in, out)
}

// =============================================================================
// MLP Head
// =============================================================================

// mlpHead is the shared decision head: hidden affine + ReLU + output affine.
type mlpHead struct {
	hidden *LinearLayer
	out    *LinearLayer
}

func newMLPHead(rng *rand.Rand, in, hidden, out int) *mlpHead {
	return &mlpHead{
		hidden: newLinearLayer(rng, in, hidden),
		out:    newLinearLayer(rng, hidden, out),
	}
}

// logits maps edge embeddings (numEdges × in) to class logits
// (numEdges × out).
func (m *mlpHead) logits(e *mat.Dense) *mat.Dense {
	h := m.hidden.Apply(e)
	reluInPlace(h)
	return m.out.Apply(h)
}
