package clinical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anomalab/edgegraph/core/encode"
	"github.com/anomalab/edgegraph/core/engineerr"
	"github.com/anomalab/edgegraph/core/graph"
)

func newClinicalBuilder(t *testing.T) *GraphBuilder {
	t.Helper()
	encoder, err := encode.New(nil)
	require.NoError(t, err)
	return NewGraphBuilder(nil, encoder)
}

func relationCount(g *graph.Graph, r graph.RelationType) int {
	n := 0
	for _, e := range g.Edges {
		if e.Relation == r {
			n++
		}
	}
	return n
}

func TestBuild_EmptyRecordIsPatientOnly(t *testing.T) {
	b := newClinicalBuilder(t)

	g, md, err := b.Build(&PatientRecord{PatientID: "patient-001"})
	require.NoError(t, err)

	assert.Equal(t, 1, g.NumNodes())
	assert.Equal(t, 0, g.NumEdges())
	assert.Equal(t, graph.NodeTypePatient, g.Nodes[0].Type)
	assert.Equal(t, "patient-001", md.PatientID)
	require.NoError(t, md.Validate(1, 0))
}

func TestBuild_MissingPatientID(t *testing.T) {
	b := newClinicalBuilder(t)

	_, _, err := b.Build(&PatientRecord{})
	require.Error(t, err)
	assert.True(t, engineerr.IsGraphBuilding(err))

	_, _, err = b.Build(nil)
	require.Error(t, err)
	assert.True(t, engineerr.IsGraphBuilding(err))
}

func TestBuild_WarfarinAspirinInteraction(t *testing.T) {
	b := newClinicalBuilder(t)

	g, md, err := b.Build(&PatientRecord{
		PatientID: "patient-007",
		Medications: []Medication{
			{Name: "Warfarin", Dosage: 5, StartDate: "2026-08-01"},
			{Name: "Aspirin", Dosage: 81, StartDate: "2026-08-05"},
		},
	})
	require.NoError(t, err)

	// patient + two medication nodes
	assert.Equal(t, 3, g.NumNodes())
	// two prescribed edges + one interaction edge
	assert.Equal(t, 3, g.NumEdges())

	var interaction *graph.Edge
	for i := range g.Edges {
		if g.Edges[i].Relation == graph.RelationInteractsWith {
			interaction = &g.Edges[i]
		}
	}
	require.NotNil(t, interaction, "warfarin+aspirin must produce an interacts_with edge")
	assert.Equal(t, 1.0, interaction.Weight, "major interaction carries full weight")
	assert.Equal(t, "major", interaction.Metadata["severity"])

	require.NoError(t, md.Validate(g.NumNodes(), g.NumEdges()))
}

func TestBuild_TreatmentAndLabEffects(t *testing.T) {
	b := newClinicalBuilder(t)

	g, _, err := b.Build(&PatientRecord{
		PatientID: "patient-019",
		Medications: []Medication{
			{Name: "lisinopril", Dosage: 10, StartDate: "2026-08-10"},
		},
		Conditions: []Condition{
			{Name: "hypertension", Severity: "moderate", OnsetDate: "2024-02-01"},
		},
		Labs: []LabObservation{
			{Name: "potassium", Value: 5.9, ReferenceLow: 3.5, ReferenceHigh: 5.0, EffectiveDate: "2026-08-15"},
		},
	})
	require.NoError(t, err)

	// patient, medication, condition, lab
	assert.Equal(t, 4, g.NumNodes())

	assert.Equal(t, 1, relationCount(g, graph.RelationPrescribed))
	assert.Equal(t, 1, relationCount(g, graph.RelationDiagnosed))
	assert.Equal(t, 1, relationCount(g, graph.RelationMeasured))
	assert.Equal(t, 1, relationCount(g, graph.RelationTreats), "lisinopril treats hypertension")
	assert.Equal(t, 1, relationCount(g, graph.RelationAffects), "lisinopril affects potassium")

	labIdx, ok := g.NodeIndex("lab:potassium")
	require.True(t, ok)
	assert.Equal(t, "true", g.Nodes[labIdx].Metadata[encode.MetaAbnormal], "out-of-range lab is flagged")
}

func TestBuild_NodeMetadataSignals(t *testing.T) {
	b := newClinicalBuilder(t)

	g, _, err := b.Build(&PatientRecord{
		PatientID: "patient-023",
		Age:       67,
		Medications: []Medication{
			{Name: "warfarin", Dosage: 5},
		},
		Conditions: []Condition{
			{Name: "diabetes", Severity: "severe"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "67", g.Nodes[0].Metadata[encode.MetaAge])

	medIdx, ok := g.NodeIndex("medication:warfarin")
	require.True(t, ok)
	assert.Equal(t, "true", g.Nodes[medIdx].Metadata[encode.MetaHighRisk])

	condIdx, ok := g.NodeIndex("condition:diabetes")
	require.True(t, ok)
	assert.Equal(t, "true", g.Nodes[condIdx].Metadata[encode.MetaChronic])
	assert.Equal(t, "1.00", g.Nodes[condIdx].Metadata[encode.MetaSeverity])
}

func TestBuild_DuplicateMedicationsCollapse(t *testing.T) {
	b := newClinicalBuilder(t)

	g, _, err := b.Build(&PatientRecord{
		PatientID: "patient-031",
		Medications: []Medication{
			{Name: "warfarin", Dosage: 5, StartDate: "2026-08-01"},
			{Name: "Warfarin", Dosage: 3, StartDate: "2026-06-01"},
			{Name: "aspirin", Dosage: 81},
		},
	})
	require.NoError(t, err)

	// patient + warfarin + aspirin
	assert.Equal(t, 3, g.NumNodes())
	// three prescribed edges survive, interaction appears once
	assert.Equal(t, 3, relationCount(g, graph.RelationPrescribed))
	assert.Equal(t, 1, relationCount(g, graph.RelationInteractsWith))
}

func TestBuild_EmptyMedicationName(t *testing.T) {
	b := newClinicalBuilder(t)

	_, _, err := b.Build(&PatientRecord{
		PatientID:   "patient-040",
		Medications: []Medication{{Name: "   "}},
	})
	require.Error(t, err)
	assert.True(t, engineerr.IsGraphBuilding(err))
}

func TestBuild_MetadataAlignment(t *testing.T) {
	b := newClinicalBuilder(t)

	g, md, err := b.Build(&PatientRecord{
		PatientID: "patient-052",
		Medications: []Medication{
			{Name: "metformin", Dosage: 500, StartDate: "2026-07-01"},
			{Name: "insulin", StartDate: "2026-05-01"},
		},
		Conditions: []Condition{
			{Name: "diabetes", Severity: "moderate"},
		},
		Labs: []LabObservation{
			{Name: "glucose", Value: 180, ReferenceLow: 70, ReferenceHigh: 110},
			{Name: "hba1c", Value: 8.1, ReferenceLow: 4, ReferenceHigh: 5.6},
		},
	})
	require.NoError(t, err)

	require.NoError(t, md.Validate(g.NumNodes(), g.NumEdges()))
	assert.Len(t, md.NodeTypes, g.NumNodes())
	assert.Len(t, md.EdgeTypes, g.NumEdges())
	assert.Len(t, md.EdgeWeights, g.NumEdges())
	assert.Len(t, md.NodeMap, g.NumNodes())

	for i, e := range g.Edges {
		assert.Equal(t, e.Relation, md.EdgeTypes[i], "edge %d relation aligned", i)
		assert.Equal(t, e.Weight, md.EdgeWeights[i], "edge %d weight aligned", i)
	}
}

func TestBuild_DeterministicNodeOrderAndFeatures(t *testing.T) {
	b := newClinicalBuilder(t)

	rec := &PatientRecord{
		PatientID: "patient-077",
		Medications: []Medication{
			{Name: "warfarin", Dosage: 5, StartDate: "2026-08-01"},
			{Name: "digoxin", Dosage: 0.25, StartDate: "2026-07-15"},
		},
		Conditions: []Condition{
			{Name: "atrial fibrillation", Severity: "moderate", OnsetDate: "2023-01-01"},
		},
	}

	g1, _, err := b.Build(rec)
	require.NoError(t, err)
	g2, _, err := b.Build(rec)
	require.NoError(t, err)

	require.Equal(t, g1.NumNodes(), g2.NumNodes())
	for i := range g1.Nodes {
		assert.Equal(t, g1.Nodes[i].ExternalID, g2.Nodes[i].ExternalID)
		assert.Equal(t, g1.Nodes[i].Features, g2.Nodes[i].Features, "node %d features", i)
	}
	assert.Equal(t, g1.EdgeIndex(), g2.EdgeIndex())
}

func TestNormalizeLabValue(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		lo, hi   float64
		norm     float64
		abnormal bool
	}{
		{"mid range", 90, 70, 110, 0.5, false},
		{"at low bound", 70, 70, 110, 0.0, false},
		{"above range clamps", 180, 70, 110, 1.0, true},
		{"below range clamps", 50, 70, 110, 0.0, true},
		{"degenerate range", 90, 0, 0, 0.5, false},
		{"inverted range", 90, 110, 70, 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			norm, abnormal := normalizeLabValue(tt.value, tt.lo, tt.hi)
			assert.InDelta(t, tt.norm, norm, 1e-9)
			assert.Equal(t, tt.abnormal, abnormal)
		})
	}
}

func TestSeverityNorm(t *testing.T) {
	assert.Equal(t, 0.3, severityNorm("mild"))
	assert.Equal(t, 0.6, severityNorm("Moderate"))
	assert.Equal(t, 1.0, severityNorm("severe"))
	assert.Equal(t, 0.5, severityNorm(""))
	assert.Equal(t, 0.5, severityNorm("weird"))
}
