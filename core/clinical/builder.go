// Package clinical builds patient relationship graphs from clinical records.
// The graph is star-shaped around the patient node (prescribed, diagnosed,
// measured edges) plus cross-relation edges discovered from the clinical
// tables: drug-drug interactions, treatment matches, and medication
// effects on lab results.
package clinical

import (
	"strconv"
	"strings"
	"time"

	"github.com/anomalab/edgegraph/core/encode"
	"github.com/anomalab/edgegraph/core/engineerr"
	"github.com/anomalab/edgegraph/core/graph"
)

// External-id prefixes keep node identities collision-free across the
// medication, condition, and lab namespaces.
const (
	medPrefix  = "medication:"
	condPrefix = "condition:"
	labPrefix  = "lab:"
)

const (
	treatsWeight  = 1.0
	affectsWeight = 0.75
)

// GraphBuilder assembles a scoring graph from one patient record.
type GraphBuilder struct {
	tables  *Tables
	encoder *encode.Encoder
}

// NewGraphBuilder creates a builder. A nil table set selects the built-in
// defaults.
func NewGraphBuilder(tables *Tables, encoder *encode.Encoder) *GraphBuilder {
	if tables == nil {
		tables = DefaultTables()
	}
	return &GraphBuilder{tables: tables, encoder: encoder}
}

// nodeRef tracks one unique clinical entity after record deduplication.
type nodeRef struct {
	idx  int
	name string
}

// Build constructs the patient graph. The patient node always comes first,
// so a record with no medications, conditions, or labs yields exactly one
// node and zero edges. Repeated builds over the same record produce
// identical node order and features.
func (b *GraphBuilder) Build(rec *PatientRecord) (*graph.Graph, *graph.Metadata, error) {
	if rec == nil || strings.TrimSpace(rec.PatientID) == "" {
		return nil, nil, engineerr.NewGraphBuildingError(
			"validate", "empty patient identifier", nil,
		)
	}

	now := time.Now()
	g := graph.New()

	patientMeta := map[string]string{}
	if rec.Age > 0 {
		patientMeta[encode.MetaAge] = strconv.Itoa(rec.Age)
	}
	patientIdx := g.ResolveNode(rec.PatientID, graph.NodeTypePatient, patientMeta)

	meds, err := b.addMedications(g, patientIdx, rec, now)
	if err != nil {
		return nil, nil, err
	}

	conds, err := b.addConditions(g, patientIdx, rec, now)
	if err != nil {
		return nil, nil, err
	}

	labs, err := b.addLabs(g, patientIdx, rec, now)
	if err != nil {
		return nil, nil, err
	}

	if err := b.addCrossEdges(g, meds, conds, labs); err != nil {
		return nil, nil, err
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		n.Features = b.encoder.Encode(n.ExternalID, n.Type, n.Metadata)
	}

	md := g.BuildMetadata(rec.PatientID)
	if err := md.Validate(g.NumNodes(), g.NumEdges()); err != nil {
		return nil, nil, engineerr.NewGraphBuildingError(
			"metadata", "metadata invariant violated", err,
		).WithOffendingID(rec.PatientID)
	}

	return g, md, nil
}

func (b *GraphBuilder) addMedications(g *graph.Graph, patientIdx int, rec *PatientRecord, now time.Time) ([]nodeRef, error) {
	var refs []nodeRef
	seen := make(map[string]bool)

	for _, m := range rec.Medications {
		name := canonical(m.Name)
		if name == "" {
			return nil, engineerr.NewGraphBuildingError(
				"medications", "empty medication name", nil,
			).WithOffendingID(rec.PatientID)
		}

		meta := map[string]string{}
		if b.tables.IsHighRisk(name) {
			meta[encode.MetaHighRisk] = "true"
		}
		if m.Dosage > 0 {
			meta["dosage"] = strconv.FormatFloat(m.Dosage, 'f', -1, 64)
			meta[encode.MetaDosageNorm] = strconv.FormatFloat(dosageNorm(m.Dosage), 'f', 4, 64)
		}
		if m.Frequency != "" {
			meta["frequency"] = m.Frequency
		}

		externalID := medPrefix + name
		idx := g.ResolveNode(externalID, graph.NodeTypeMedication, meta)
		if !seen[name] {
			seen[name] = true
			refs = append(refs, nodeRef{idx: idx, name: name})
		}

		err := appendEdge(g, graph.Edge{
			Source:   patientIdx,
			Target:   idx,
			Relation: graph.RelationPrescribed,
			Weight:   Recency(m.StartDate, now),
			OriginID: externalID,
			Metadata: map[string]string{"medication": name},
		})
		if err != nil {
			return nil, err
		}
	}

	return refs, nil
}

func (b *GraphBuilder) addConditions(g *graph.Graph, patientIdx int, rec *PatientRecord, now time.Time) ([]nodeRef, error) {
	var refs []nodeRef
	seen := make(map[string]bool)

	for _, c := range rec.Conditions {
		name := canonical(c.Name)
		if name == "" {
			return nil, engineerr.NewGraphBuildingError(
				"conditions", "empty condition name", nil,
			).WithOffendingID(rec.PatientID)
		}

		meta := map[string]string{
			encode.MetaSeverity: strconv.FormatFloat(severityNorm(c.Severity), 'f', 2, 64),
		}
		if b.tables.IsChronic(name) {
			meta[encode.MetaChronic] = "true"
		}

		externalID := condPrefix + name
		idx := g.ResolveNode(externalID, graph.NodeTypeCondition, meta)
		if !seen[name] {
			seen[name] = true
			refs = append(refs, nodeRef{idx: idx, name: name})
		}

		err := appendEdge(g, graph.Edge{
			Source:   patientIdx,
			Target:   idx,
			Relation: graph.RelationDiagnosed,
			Weight:   Recency(c.OnsetDate, now),
			OriginID: externalID,
			Metadata: map[string]string{"condition": name},
		})
		if err != nil {
			return nil, err
		}
	}

	return refs, nil
}

func (b *GraphBuilder) addLabs(g *graph.Graph, patientIdx int, rec *PatientRecord, now time.Time) ([]nodeRef, error) {
	var refs []nodeRef
	seen := make(map[string]bool)

	for _, l := range rec.Labs {
		name := canonical(l.Name)
		if name == "" {
			return nil, engineerr.NewGraphBuildingError(
				"labs", "empty lab name", nil,
			).WithOffendingID(rec.PatientID)
		}

		norm, abnormal := normalizeLabValue(l.Value, l.ReferenceLow, l.ReferenceHigh)
		meta := map[string]string{
			"value":              strconv.FormatFloat(l.Value, 'f', -1, 64),
			encode.MetaValueNorm: strconv.FormatFloat(norm, 'f', 4, 64),
		}
		if abnormal {
			meta[encode.MetaAbnormal] = "true"
		}

		externalID := labPrefix + name
		idx := g.ResolveNode(externalID, graph.NodeTypeLabValue, meta)
		if !seen[name] {
			seen[name] = true
			refs = append(refs, nodeRef{idx: idx, name: name})
		}

		err := appendEdge(g, graph.Edge{
			Source:   patientIdx,
			Target:   idx,
			Relation: graph.RelationMeasured,
			Weight:   Recency(l.EffectiveDate, now),
			OriginID: externalID,
			Metadata: map[string]string{"lab": name},
		})
		if err != nil {
			return nil, err
		}
	}

	return refs, nil
}

// addCrossEdges discovers relationships between clinical entities from the
// tables: one interacts_with edge per interacting unique medication pair,
// one treats edge per recognized (medication, condition) treatment, and one
// affects edge per known (medication, lab) effect.
func (b *GraphBuilder) addCrossEdges(g *graph.Graph, meds, conds, labs []nodeRef) error {
	for i := 0; i < len(meds); i++ {
		for j := i + 1; j < len(meds); j++ {
			sev, ok := b.tables.Interacts(meds[i].name, meds[j].name)
			if !ok {
				continue
			}
			err := appendEdge(g, graph.Edge{
				Source:   meds[i].idx,
				Target:   meds[j].idx,
				Relation: graph.RelationInteractsWith,
				Weight:   sev.Weight(),
				OriginID: "interaction:" + meds[i].name + "+" + meds[j].name,
				Metadata: map[string]string{
					"drug_a":   meds[i].name,
					"drug_b":   meds[j].name,
					"severity": sev.String(),
				},
			})
			if err != nil {
				return err
			}
		}
	}

	for _, m := range meds {
		for _, c := range conds {
			if !b.tables.Treats(m.name, c.name) {
				continue
			}
			err := appendEdge(g, graph.Edge{
				Source:   m.idx,
				Target:   c.idx,
				Relation: graph.RelationTreats,
				Weight:   treatsWeight,
				OriginID: "treats:" + m.name + "+" + c.name,
				Metadata: map[string]string{
					"medication": m.name,
					"condition":  c.name,
				},
			})
			if err != nil {
				return err
			}
		}
	}

	for _, m := range meds {
		for _, l := range labs {
			if !b.tables.Affects(m.name, l.name) {
				continue
			}
			err := appendEdge(g, graph.Edge{
				Source:   m.idx,
				Target:   l.idx,
				Relation: graph.RelationAffects,
				Weight:   affectsWeight,
				OriginID: "affects:" + m.name + "+" + l.name,
				Metadata: map[string]string{
					"medication": m.name,
					"lab":        l.name,
				},
			})
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func appendEdge(g *graph.Graph, e graph.Edge) error {
	if err := g.AddEdge(e); err != nil {
		return engineerr.NewGraphBuildingError(
			"edges", "appending edge", err,
		).WithOffendingID(e.OriginID)
	}
	return nil
}

// dosageNorm scales a milligram dosage into [0,1] against a nominal
// 1000mg ceiling.
func dosageNorm(mg float64) float64 {
	v := mg / 1000
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// severityNorm maps a condition severity label onto [0,1]. Unlabeled
// conditions sit at the neutral midpoint.
func severityNorm(severity string) float64 {
	switch canonical(severity) {
	case "mild":
		return 0.3
	case "moderate":
		return 0.6
	case "severe":
		return 1.0
	default:
		return 0.5
	}
}

// normalizeLabValue positions a lab value within its reference range and
// reports whether it falls outside. Degenerate ranges normalize to the
// midpoint and are never abnormal.
func normalizeLabValue(value, lo, hi float64) (float64, bool) {
	if hi <= lo {
		return 0.5, false
	}

	norm := (value - lo) / (hi - lo)
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	return norm, value < lo || value > hi
}
