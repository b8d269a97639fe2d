package model

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// reluInPlace clamps every entry of m to be non-negative.
func reluInPlace(m *mat.Dense) {
	m.Apply(func(_, _ int, v float64) float64 {
		if v < 0 {
			return 0
		}
		return v
	}, m)
}

// softmax converts logits to a probability distribution. The max is
// subtracted first so large logits cannot overflow the exponent.
func softmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}

	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}

	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
		sum += out[i]
	}
	if sum == 0 {
		uniform := 1 / float64(len(out))
		for i := range out {
			out[i] = uniform
		}
		return out
	}

	for i := range out {
		out[i] /= sum
	}
	return out
}

// rowSlice copies row i of m into a fresh slice.
func rowSlice(m *mat.Dense, i int) []float64 {
	_, cols := m.Dims()
	out := make([]float64, cols)
	for j := 0; j < cols; j++ {
		out[j] = m.At(i, j)
	}
	return out
}

// allFinite reports whether every value is a normal float.
func allFinite(vs []float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
