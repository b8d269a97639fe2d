package model

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/anomalab/edgegraph/core/engineerr"
)

// testGraph returns a small deterministic feature matrix and edge list.
func testGraph(t *testing.T, numNodes, inputDim int, edges [][2]int) (*mat.Dense, [][2]int) {
	t.Helper()
	rng := rand.New(rand.NewPCG(7, 7))
	data := make([]float64, numNodes*inputDim)
	for i := range data {
		data[i] = rng.Float64()
	}
	return mat.NewDense(numNodes, inputDim, data), edges
}

func configFor(arch Architecture) Config {
	cfg := DefaultConfig()
	cfg.Architecture = arch
	return cfg
}

func TestForward_AllVariants(t *testing.T) {
	x, edges := testGraph(t, 4, 16, [][2]int{{0, 1}, {0, 2}, {2, 3}, {1, 3}})

	for _, arch := range ValidArchitectures() {
		t.Run(arch.String(), func(t *testing.T) {
			clf, err := NewEdgeClassifier(configFor(arch))
			require.NoError(t, err)
			assert.Equal(t, arch, clf.Architecture())

			probs, err := clf.Forward(x, edges)
			require.NoError(t, err)
			require.Len(t, probs, len(edges))
			for i, p := range probs {
				assert.GreaterOrEqual(t, p, 0.0, "edge %d", i)
				assert.LessOrEqual(t, p, 1.0, "edge %d", i)
			}
		})
	}
}

func TestForward_DeterministicAcrossInstances(t *testing.T) {
	x, edges := testGraph(t, 5, 16, [][2]int{{0, 1}, {1, 2}, {3, 4}})

	for _, arch := range ValidArchitectures() {
		t.Run(arch.String(), func(t *testing.T) {
			a, err := NewEdgeClassifier(configFor(arch))
			require.NoError(t, err)
			b, err := NewEdgeClassifier(configFor(arch))
			require.NoError(t, err)

			pa, err := a.Forward(x, edges)
			require.NoError(t, err)
			pb, err := b.Forward(x, edges)
			require.NoError(t, err)

			assert.Equal(t, pa, pb, "same seed must give identical scores")

			pa2, err := a.Forward(x, edges)
			require.NoError(t, err)
			assert.Equal(t, pa, pa2, "repeated calls must not drift")
		})
	}
}

func TestForward_SeedChangesWeights(t *testing.T) {
	x, edges := testGraph(t, 4, 16, [][2]int{{0, 1}, {2, 3}})

	cfgA := configFor(ArchitectureBaseline)
	cfgB := configFor(ArchitectureBaseline)
	cfgB.Seed = 1337

	a, err := NewEdgeClassifier(cfgA)
	require.NoError(t, err)
	b, err := NewEdgeClassifier(cfgB)
	require.NoError(t, err)

	pa, err := a.Forward(x, edges)
	require.NoError(t, err)
	pb, err := b.Forward(x, edges)
	require.NoError(t, err)

	assert.NotEqual(t, pa, pb)
}

func TestForward_ZeroEdges(t *testing.T) {
	for _, arch := range ValidArchitectures() {
		t.Run(arch.String(), func(t *testing.T) {
			clf, err := NewEdgeClassifier(configFor(arch))
			require.NoError(t, err)

			probs, err := clf.Forward(nil, nil)
			require.NoError(t, err)
			assert.Empty(t, probs)
		})
	}
}

func TestForward_DimensionMismatch(t *testing.T) {
	x, edges := testGraph(t, 3, 8, [][2]int{{0, 1}})

	clf, err := NewEdgeClassifier(configFor(ArchitectureBaseline))
	require.NoError(t, err)

	_, err = clf.Forward(x, edges)
	require.Error(t, err)
	assert.True(t, engineerr.IsModelInference(err))
}

func TestForward_EdgeIndexOutOfRange(t *testing.T) {
	x, _ := testGraph(t, 3, 16, nil)

	clf, err := NewEdgeClassifier(configFor(ArchitectureGSL))
	require.NoError(t, err)

	_, err = clf.Forward(x, [][2]int{{0, 9}})
	require.Error(t, err)
	assert.True(t, engineerr.IsModelInference(err))
}

func TestNewEdgeClassifier_UnknownArchitecture(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Architecture = Architecture(42)

	_, err := NewEdgeClassifier(cfg)
	require.Error(t, err)
	assert.True(t, engineerr.IsConfiguration(err))
}

func TestForward_LinearMessagePassing(t *testing.T) {
	x, edges := testGraph(t, 4, 16, [][2]int{{0, 1}, {1, 2}})

	cfg := configFor(ArchitectureBaseline)
	cfg.MessagePassing = MessagePassingLinear

	clf, err := NewEdgeClassifier(cfg)
	require.NoError(t, err)

	probs, err := clf.Forward(x, edges)
	require.NoError(t, err)
	require.Len(t, probs, 2)
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestBuildAdjacency(t *testing.T) {
	adj := buildAdjacency(3, [][2]int{{0, 1}, {0, 1}, {1, 2}})

	assert.Equal(t, 1.0, adj.At(0, 1), "parallel edges do not stack")
	assert.Equal(t, 1.0, adj.At(1, 0), "adjacency is symmetric")
	assert.Equal(t, 1.0, adj.At(1, 2))
	assert.Equal(t, 0.0, adj.At(0, 2))
}

func TestMessagePassingAdjacency_RowsSumToOne(t *testing.T) {
	adj := messagePassingAdjacency(4, [][2]int{{0, 1}, {1, 2}})

	for i := 0; i < 4; i++ {
		var sum float64
		for j := 0; j < 4; j++ {
			v := adj.At(i, j)
			assert.GreaterOrEqual(t, v, 0.0)
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-12, "row %d", i)
	}
}
