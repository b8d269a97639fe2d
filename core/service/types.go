package service

import "github.com/anomalab/edgegraph/core/graph"

// ScoredEdge is one scored relationship, returned in edge-iteration order
// so callers can map results back to their source records.
type ScoredEdge struct {
	// EdgeIndex is the position of the edge in its graph.
	EdgeIndex int `json:"edge_index"`

	// OriginID traces the edge back to the record that produced it: the
	// event id on the audit path, the clinical entity or relationship id
	// on the clinical path.
	OriginID string `json:"origin_id"`

	// Source and Target are the endpoint external ids.
	Source string `json:"source"`
	Target string `json:"target"`

	// Relation is the edge relation type name.
	Relation string `json:"relation"`

	// Score is the anomalous-class probability in [0,1].
	Score float64 `json:"anomaly_score"`

	// IsAnomaly reports whether Score strictly exceeds the threshold.
	IsAnomaly bool `json:"is_anomaly"`

	// Importance is the structural importance in [0,1]. Populated only
	// when the architecture supports it.
	Importance float64 `json:"structural_importance,omitempty"`

	// AnomalyType buckets clinical-path edges by their relation.
	AnomalyType string `json:"anomaly_type,omitempty"`

	// Explanation is the synthesized human-readable summary.
	Explanation string `json:"explanation"`

	// ContributingFactors carries the numeric signals that shaped the
	// relationship: the edge weight plus endpoint flags and magnitudes
	// (high-risk medication, abnormal lab, condition severity).
	ContributingFactors map[string]float64 `json:"contributing_factors,omitempty"`
}

// ClinicalReport is the outcome of one clinical anomaly detection call.
type ClinicalReport struct {
	PatientID string `json:"patient_id"`

	// Anomalies lists only the edges flagged anomalous, in edge order.
	Anomalies []ScoredEdge `json:"anomalies"`

	AnomalyCount int `json:"anomaly_count"`

	// TypeCounts tallies flagged edges per anomaly type bucket.
	TypeCounts map[string]int `json:"anomaly_type_counts"`

	// GraphMetadata describes the graph the detection ran over.
	GraphMetadata *graph.Metadata `json:"graph_metadata,omitempty"`

	// Message summarizes the outcome for human consumption.
	Message string `json:"message"`
}

// ModelInfo describes the configured classifier.
type ModelInfo struct {
	ModelType          string  `json:"model_type"`
	ExpectedAccuracy   float64 `json:"expected_accuracy"`
	Initialized        bool    `json:"is_initialized"`
	SupportsImportance bool    `json:"supports_importance"`
}

// Health status constants represent the operational state of the engine.
const (
	// StatusHealthy indicates the engine is ready to score.
	StatusHealthy = "healthy"

	// StatusDegraded indicates the engine is operational with issues.
	StatusDegraded = "degraded"

	// StatusUnhealthy indicates the engine cannot score.
	StatusUnhealthy = "unhealthy"
)

// HealthStatus reports engine readiness: weights constructed and encoder
// and classifier dimensions consistent.
type HealthStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// IsHealthy returns true if the status is StatusHealthy.
func (h HealthStatus) IsHealthy() bool {
	return h.Status == StatusHealthy
}

// IsUnhealthy returns true if the status is StatusUnhealthy.
func (h HealthStatus) IsUnhealthy() bool {
	return h.Status == StatusUnhealthy
}
