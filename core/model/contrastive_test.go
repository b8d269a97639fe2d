package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestContrastive_ProjectionsUnitNorm(t *testing.T) {
	x, edges := testGraph(t, 4, 16, [][2]int{{0, 1}, {1, 2}, {2, 3}})

	clf, err := NewEdgeClassifier(configFor(ArchitectureContrastive))
	require.NoError(t, err)
	con := clf.(*ContrastiveClassifier)

	proj, err := con.Projections(x, edges)
	require.NoError(t, err)
	require.NotNil(t, proj)

	rows, cols := proj.Dims()
	assert.Equal(t, len(edges), rows)
	assert.Equal(t, 16, cols)

	for i := 0; i < rows; i++ {
		var norm float64
		for j := 0; j < cols; j++ {
			v := proj.At(i, j)
			norm += v * v
		}
		// Zero rows are permitted when ReLU silences an embedding.
		if norm > 0 {
			assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9, "row %d", i)
		}
	}
}

func TestContrastive_ProjectionsZeroEdges(t *testing.T) {
	clf, err := NewEdgeClassifier(configFor(ArchitectureContrastive))
	require.NoError(t, err)
	con := clf.(*ContrastiveClassifier)

	proj, err := con.Projections(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, proj)
}

func TestSupConLoss_ClustersBeatMismatches(t *testing.T) {
	// Two tight clusters on the unit circle.
	proj := mat.NewDense(4, 2, []float64{
		1, 0,
		1, 0,
		-1, 0,
		-1, 0,
	})

	aligned := SupConLoss(proj, []int{0, 0, 1, 1}, 1.0)
	crossed := SupConLoss(proj, []int{0, 1, 0, 1}, 1.0)

	assert.Greater(t, crossed, aligned,
		"labels matching the cluster structure must score lower loss")
	assert.GreaterOrEqual(t, aligned, 0.0)
}

func TestSupConLoss_TemperatureSharpens(t *testing.T) {
	proj := mat.NewDense(4, 2, []float64{
		1, 0,
		0.6, 0.8,
		-1, 0,
		-0.6, -0.8,
	})
	labels := []int{0, 0, 1, 1}

	warm := SupConLoss(proj, labels, 1.0)
	cold := SupConLoss(proj, labels, 0.1)

	assert.Greater(t, warm, 0.0)
	assert.Less(t, cold, warm,
		"lower temperature sharpens well-separated clusters toward zero loss")
}

func TestSupConLoss_Degenerate(t *testing.T) {
	proj := mat.NewDense(2, 2, []float64{1, 0, 0, 1})

	assert.Equal(t, 0.0, SupConLoss(nil, []int{0}, 1.0))
	assert.Equal(t, 0.0, SupConLoss(proj, []int{0, 1, 1}, 1.0), "label length mismatch")
	assert.Equal(t, 0.0, SupConLoss(proj, []int{0, 1}, 0), "non-positive temperature")
	assert.Equal(t, 0.0, SupConLoss(proj, []int{0, 1}, 1.0), "no positive pairs anywhere")

	single := mat.NewDense(1, 2, []float64{1, 0})
	assert.Equal(t, 0.0, SupConLoss(single, []int{0}, 1.0))
}
