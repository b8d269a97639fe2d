package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/anomalab/edgegraph/core/encode"
	"github.com/anomalab/edgegraph/core/graph"
)

// Anomaly type buckets for the clinical path.
const (
	AnomalyTypeMedication      = "medication_anomaly"
	AnomalyTypeLabValue        = "lab_value_anomaly"
	AnomalyTypeClinicalPattern = "clinical_pattern_anomaly"
)

// Structural importance below the weak bound or above the strong bound
// changes the explanation qualifier.
const (
	importanceWeak   = 0.3
	importanceStrong = 0.7
)

// isAnomalous applies the decision rule: strictly greater than threshold,
// so a score exactly at the threshold is not flagged.
func isAnomalous(score, threshold float64) bool {
	return score > threshold
}

// anomalyBucket maps a clinical relation onto its anomaly type.
// Prescription and interaction edges concern medication, measurement and
// lab-effect edges concern lab values, everything else is a general
// clinical pattern.
func anomalyBucket(r graph.RelationType) string {
	switch r {
	case graph.RelationPrescribed, graph.RelationInteractsWith:
		return AnomalyTypeMedication
	case graph.RelationMeasured, graph.RelationAffects:
		return AnomalyTypeLabValue
	default:
		return AnomalyTypeClinicalPattern
	}
}

func importanceQualifier(v float64) string {
	switch {
	case v < importanceWeak:
		return "weak"
	case v > importanceStrong:
		return "strong"
	default:
		return "moderate"
	}
}

// synthesizeExplanation renders the human-readable summary for one scored
// edge: the numeric score, the structural importance qualifier when the
// architecture provides one, and the clinical bucket when on the clinical
// path.
func synthesizeExplanation(score, importance float64, hasImportance bool, bucket string) string {
	var b strings.Builder
	if bucket != "" {
		b.WriteString(bucket)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "anomaly score %.3f", score)
	if hasImportance {
		fmt.Fprintf(&b, ", %s structural importance %.3f", importanceQualifier(importance), importance)
	}
	return b.String()
}

// contributingFactors collects the numeric signals that shaped a
// relationship: the edge weight plus flag and magnitude signals from both
// endpoints. When the endpoints carry the same signal the larger value wins.
func contributingFactors(g *graph.Graph, e graph.Edge) map[string]float64 {
	factors := map[string]float64{"edge_weight": e.Weight}

	for _, idx := range []int{e.Source, e.Target} {
		meta := g.Nodes[idx].Metadata
		if meta[encode.MetaHighRisk] == "true" {
			factors["high_risk_medication"] = 1
		}
		if meta[encode.MetaChronic] == "true" {
			factors["chronic_condition"] = 1
		}
		if meta[encode.MetaAbnormal] == "true" {
			factors["abnormal_lab"] = 1
		}
		addFactor(factors, "lab_value_norm", meta[encode.MetaValueNorm])
		addFactor(factors, "condition_severity", meta[encode.MetaSeverity])
		addFactor(factors, "dosage_norm", meta[encode.MetaDosageNorm])
	}

	return factors
}

// addFactor parses a numeric metadata value into the factor map, keeping
// the larger value on repeated keys.
func addFactor(factors map[string]float64, key, raw string) {
	if raw == "" {
		return
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	if cur, ok := factors[key]; !ok || v > cur {
		factors[key] = v
	}
}
