package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNode_FirstOccurrenceWins(t *testing.T) {
	g := New()

	first := g.ResolveNode("user_alice", NodeTypeUser, map[string]string{"role": "admin"})
	second := g.ResolveNode("user_alice", NodeTypeUnknown, map[string]string{"role": "guest"})

	assert.Equal(t, first, second)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, NodeTypeUser, g.Nodes[0].Type)
	assert.Equal(t, "admin", g.Nodes[0].Metadata["role"])
}

func TestResolveNode_InsertionOrderIsDense(t *testing.T) {
	g := New()

	ids := []string{"user_u1", "system_r1", "user_u2", "ip_10.0.0.1"}
	for i, id := range ids {
		idx := g.ResolveNode(id, NodeTypeUnknown, nil)
		assert.Equal(t, i, idx, "index for %s", id)
	}

	// Re-resolving in a different order must not change anything.
	for i := len(ids) - 1; i >= 0; i-- {
		idx := g.ResolveNode(ids[i], NodeTypeUnknown, nil)
		assert.Equal(t, i, idx)
	}
	assert.Equal(t, len(ids), g.NumNodes())
}

func TestAddEdge_BoundsChecked(t *testing.T) {
	g := New()
	g.ResolveNode("a", NodeTypeUser, nil)
	g.ResolveNode("b", NodeTypeSystem, nil)

	err := g.AddEdge(Edge{Source: 0, Target: 1, Relation: RelationGeneric, Weight: 1.0, OriginID: "evt-1"})
	require.NoError(t, err)

	err = g.AddEdge(Edge{Source: 0, Target: 5, OriginID: "evt-2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNodeIndexOutOfRange)

	err = g.AddEdge(Edge{Source: -1, Target: 0, OriginID: "evt-3"})
	assert.ErrorIs(t, err, ErrNodeIndexOutOfRange)

	assert.Equal(t, 1, g.NumEdges())
}

func TestEdgeIndex_AlignedWithEdgeOrder(t *testing.T) {
	g := New()
	g.ResolveNode("a", NodeTypeUser, nil)
	g.ResolveNode("b", NodeTypeSystem, nil)
	g.ResolveNode("c", NodeTypeSystem, nil)

	require.NoError(t, g.AddEdge(Edge{Source: 0, Target: 1, Weight: 0.5, OriginID: "e1"}))
	require.NoError(t, g.AddEdge(Edge{Source: 0, Target: 2, Weight: 0.9, OriginID: "e2"}))
	require.NoError(t, g.AddEdge(Edge{Source: 0, Target: 1, Weight: 0.1, OriginID: "e3"}))

	pairs := g.EdgeIndex()
	require.Len(t, pairs, 3)
	assert.Equal(t, [2]int{0, 1}, pairs[0])
	assert.Equal(t, [2]int{0, 2}, pairs[1])
	assert.Equal(t, [2]int{0, 1}, pairs[2], "parallel edges are kept")

	assert.Equal(t, []float64{0.5, 0.9, 0.1}, g.EdgeWeights())
	assert.Equal(t, []string{"e1", "e2", "e3"}, g.OriginIDs())
}

func TestFeatureMatrix(t *testing.T) {
	g := New()
	g.ResolveNode("a", NodeTypeUser, nil)
	g.ResolveNode("b", NodeTypeSystem, nil)
	g.Nodes[0].Features = []float64{1, 2, 3}
	g.Nodes[1].Features = []float64{4, 5, 6}

	x, err := g.FeatureMatrix()
	require.NoError(t, err)
	rows, cols := x.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, 5.0, x.At(1, 1))
}

func TestFeatureMatrix_Errors(t *testing.T) {
	t.Run("empty graph is nil matrix", func(t *testing.T) {
		g := New()
		x, err := g.FeatureMatrix()
		require.NoError(t, err)
		assert.Nil(t, x)
	})

	t.Run("missing features", func(t *testing.T) {
		g := New()
		g.ResolveNode("a", NodeTypeUser, nil)
		_, err := g.FeatureMatrix()
		assert.ErrorIs(t, err, ErrMissingFeatures)
	})

	t.Run("ragged features", func(t *testing.T) {
		g := New()
		g.ResolveNode("a", NodeTypeUser, nil)
		g.ResolveNode("b", NodeTypeUser, nil)
		g.Nodes[0].Features = []float64{1, 2}
		g.Nodes[1].Features = []float64{1}
		_, err := g.FeatureMatrix()
		assert.ErrorIs(t, err, ErrRaggedFeatures)
	})
}

func TestBuildMetadata_Invariants(t *testing.T) {
	g := New()
	g.ResolveNode("patient-1", NodeTypePatient, nil)
	g.ResolveNode("medication:warfarin", NodeTypeMedication, map[string]string{"high_risk": "true"})
	require.NoError(t, g.AddEdge(Edge{
		Source: 0, Target: 1,
		Relation: RelationPrescribed,
		Weight:   0.8,
		OriginID: "medication:warfarin",
		Metadata: map[string]string{"dosage": "5"},
	}))

	md := g.BuildMetadata("patient-1")
	require.NoError(t, md.Validate(g.NumNodes(), g.NumEdges()))

	assert.Equal(t, "patient-1", md.PatientID)
	assert.Equal(t, "medication:warfarin", md.NodeMap[1])
	assert.Equal(t, []NodeType{NodeTypePatient, NodeTypeMedication}, md.NodeTypes)
	assert.Equal(t, []RelationType{RelationPrescribed}, md.EdgeTypes)
	assert.Equal(t, []float64{0.8}, md.EdgeWeights)
	assert.Equal(t, "5", md.EdgeMeta[0]["dosage"])

	assert.Error(t, md.Validate(3, 1), "node count mismatch must fail")
	assert.Error(t, md.Validate(2, 0), "edge count mismatch must fail")
}

func TestNodeTypeRoundTrip(t *testing.T) {
	for _, nt := range ValidNodeTypes() {
		parsed, err := ParseNodeType(nt.String())
		require.NoError(t, err)
		assert.Equal(t, nt, parsed)
		assert.True(t, nt.IsValid())
	}

	_, err := ParseNodeType("starship")
	assert.Error(t, err)
	assert.False(t, NodeType(42).IsValid())
}

func TestRelationTypeRoundTrip(t *testing.T) {
	for _, rt := range ValidRelationTypes() {
		parsed, err := ParseRelationType(rt.String())
		require.NoError(t, err)
		assert.Equal(t, rt, parsed)
		assert.True(t, rt.IsValid())
	}

	_, err := ParseRelationType("owns")
	assert.Error(t, err)
}
