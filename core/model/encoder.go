package model

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/anomalab/edgegraph/core/engineerr"
)

// nodeEncoder is the shared two-round message-passing encoder producing
// HiddenDim node embeddings.
type nodeEncoder struct {
	layer1 MessagePassingLayer
	layer2 MessagePassingLayer
}

func newNodeEncoder(cfg Config, rng *rand.Rand) *nodeEncoder {
	return &nodeEncoder{
		layer1: newMessagePassingLayer(cfg.MessagePassing, rng, cfg.InputDim, cfg.HiddenDim),
		layer2: newMessagePassingLayer(cfg.MessagePassing, rng, cfg.HiddenDim, cfg.HiddenDim),
	}
}

// Encode runs both rounds with ReLU after each.
func (e *nodeEncoder) Encode(x, normAdj *mat.Dense) *mat.Dense {
	h := e.layer1.Forward(x, normAdj)
	reluInPlace(h)
	h = e.layer2.Forward(h, normAdj)
	reluInPlace(h)
	return h
}

// edgeEmbeddings concatenates endpoint embeddings per edge, producing a
// (numEdges × 2·hidden) matrix aligned with edge order.
func edgeEmbeddings(h *mat.Dense, edges [][2]int) *mat.Dense {
	_, hidden := h.Dims()
	out := mat.NewDense(len(edges), 2*hidden, nil)

	for i, e := range edges {
		for j := 0; j < hidden; j++ {
			out.Set(i, j, h.At(e[0], j))
			out.Set(i, hidden+j, h.At(e[1], j))
		}
	}
	return out
}

// validateInputs enforces the numeric contract shared by every variant:
// the feature width must match the construction-time input dimension and
// every edge endpoint must address a feature row.
func validateInputs(cfg Config, x *mat.Dense, edges [][2]int) error {
	if x == nil {
		return engineerr.NewModelInferenceError(
			"forward", "nil feature matrix with non-empty edge list", nil,
		)
	}

	rows, cols := x.Dims()
	if cols != cfg.InputDim {
		return engineerr.NewModelInferenceError(
			"forward",
			fmt.Sprintf("feature dimension mismatch: got %d, classifier built for %d", cols, cfg.InputDim),
			nil,
		)
	}

	for i, e := range edges {
		if e[0] < 0 || e[0] >= rows || e[1] < 0 || e[1] >= rows {
			return engineerr.NewModelInferenceError(
				"forward",
				fmt.Sprintf("edge %d endpoints (%d,%d) outside %d nodes", i, e[0], e[1], rows),
				nil,
			)
		}
	}
	return nil
}

// anomalousFromLogits converts per-edge class logits into the
// anomalous-class probability via row softmax.
func anomalousFromLogits(logits *mat.Dense) ([]float64, error) {
	rows, _ := logits.Dims()
	out := make([]float64, rows)

	for i := 0; i < rows; i++ {
		probs := softmax(rowSlice(logits, i))
		out[i] = probs[1]
	}

	if !allFinite(out) {
		return nil, errNonFinite()
	}
	return out, nil
}

func errNonFinite() error {
	return engineerr.NewModelInferenceError(
		"forward", "non-finite probability in output", nil,
	)
}
