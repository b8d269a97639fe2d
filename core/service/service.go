// Package service exposes the anomaly-scoring facade. A Service wires the
// feature encoder, the audit and clinical graph builders, and one edge
// classifier into the two scoring entry points: ScoreEvents for security
// audit batches and DetectClinicalAnomalies for patient records.
//
// A Service is immutable after construction. Swapping architectures means
// building a new Service from a new model configuration.
package service

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/anomalab/edgegraph/core/audit"
	"github.com/anomalab/edgegraph/core/clinical"
	"github.com/anomalab/edgegraph/core/encode"
	"github.com/anomalab/edgegraph/core/engineerr"
	"github.com/anomalab/edgegraph/core/graph"
	"github.com/anomalab/edgegraph/core/model"
)

// Config assembles a Service. Only Model is consulted for inference
// behavior; the remaining fields override the default collaborators.
type Config struct {
	// Model selects and parameterizes the classifier architecture.
	Model model.Config

	// Encoder overrides the default feature encoder. Its dimension must
	// match Model.InputDim.
	Encoder *encode.Encoder

	// TypeRules override the default audit entity classification rules.
	TypeRules []audit.TypeRule

	// Tables override the default clinical knowledge tables.
	Tables *clinical.Tables

	// Logger receives structured scoring logs. Defaults to slog.Default().
	Logger *slog.Logger

	// DisableCache turns off audit result memoization.
	DisableCache bool
}

// Service scores relationship graphs for anomalies.
type Service struct {
	cfg        model.Config
	classifier model.EdgeClassifier
	importance model.ImportanceScorer
	audit      *audit.GraphBuilder
	clinical   *clinical.GraphBuilder
	cache      *resultCache
	logger     *slog.Logger
}

// New builds a Service from config. A nil config uses model.DefaultConfig
// with default collaborators throughout.
func New(config *Config) (*Service, error) {
	if config == nil {
		config = &Config{Model: model.DefaultConfig()}
	}

	if err := config.Model.Validate(); err != nil {
		return nil, err
	}

	encoder := config.Encoder
	if encoder == nil {
		var err error
		encoder, err = encode.New(&encode.Config{Dim: config.Model.InputDim})
		if err != nil {
			return nil, err
		}
	}
	if encoder.Dim() != config.Model.InputDim {
		return nil, engineerr.NewConfigurationError("service",
			fmt.Sprintf("encoder dimension %d does not match model input dimension %d",
				encoder.Dim(), config.Model.InputDim), nil)
	}

	entityClassifier, err := audit.NewEntityClassifier(config.TypeRules)
	if err != nil {
		return nil, err
	}

	classifier, err := model.NewEdgeClassifier(config.Model)
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:        config.Model,
		classifier: classifier,
		audit:      audit.NewGraphBuilder(entityClassifier, encoder),
		clinical:   clinical.NewGraphBuilder(config.Tables, encoder),
		logger:     config.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if scorer, ok := classifier.(model.ImportanceScorer); ok {
		s.importance = scorer
	}

	if !config.DisableCache {
		s.cache, err = newResultCache()
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Close releases the service's cache resources.
func (s *Service) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}

// ScoreEvents builds the entity graph for a batch of audit events and
// scores every event edge. Results come back in event order; an empty
// batch yields an empty result.
func (s *Service) ScoreEvents(events []audit.LogEvent, threshold float64) ([]ScoredEdge, error) {
	inferenceID := uuid.NewString()

	var key string
	if s.cache != nil {
		key = scoreFingerprint(events, threshold)
		if scored, ok := s.cache.Get(key); ok {
			s.logger.Debug("audit scoring served from cache",
				"inference_id", inferenceID,
				"events", len(events))
			return scored, nil
		}
	}

	g, err := s.audit.Build(events)
	if err != nil {
		s.logger.Error("audit graph construction failed",
			"inference_id", inferenceID,
			"error", err)
		return nil, err
	}

	scored, err := s.scoreGraph(g, threshold, false)
	if err != nil {
		s.logger.Error("audit scoring failed",
			"inference_id", inferenceID,
			"error", err)
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, scored)
	}

	s.logger.Info("audit events scored",
		"inference_id", inferenceID,
		"events", len(events),
		"nodes", g.NumNodes(),
		"edges", g.NumEdges(),
		"anomalies", countFlagged(scored))
	return scored, nil
}

// BuildClinicalGraph constructs the patient graph without scoring it.
// Useful for inspecting graph structure and serialization metadata.
func (s *Service) BuildClinicalGraph(record *clinical.PatientRecord) (*graph.Graph, *graph.Metadata, error) {
	return s.clinical.Build(record)
}

// DetectClinicalAnomalies builds the patient graph, scores every clinical
// relationship, and reports the flagged ones bucketed by anomaly type.
func (s *Service) DetectClinicalAnomalies(record *clinical.PatientRecord, threshold float64) (*ClinicalReport, error) {
	inferenceID := uuid.NewString()

	g, meta, err := s.clinical.Build(record)
	if err != nil {
		s.logger.Error("clinical graph construction failed",
			"inference_id", inferenceID,
			"error", err)
		return nil, err
	}

	report := &ClinicalReport{
		PatientID:     record.PatientID,
		Anomalies:     []ScoredEdge{},
		TypeCounts:    make(map[string]int),
		GraphMetadata: meta,
	}

	if g.NumEdges() == 0 {
		report.Message = fmt.Sprintf("patient %s has no clinical relationships to score", record.PatientID)
		return report, nil
	}

	scored, err := s.scoreGraph(g, threshold, true)
	if err != nil {
		s.logger.Error("clinical scoring failed",
			"inference_id", inferenceID,
			"patient_id", record.PatientID,
			"error", err)
		return nil, err
	}

	for i := range scored {
		if !scored[i].IsAnomaly {
			continue
		}
		report.Anomalies = append(report.Anomalies, scored[i])
		report.TypeCounts[scored[i].AnomalyType]++
	}
	report.AnomalyCount = len(report.Anomalies)
	report.Message = fmt.Sprintf("%d of %d relationships flagged anomalous", report.AnomalyCount, len(scored))

	s.logger.Info("clinical record scored",
		"inference_id", inferenceID,
		"patient_id", record.PatientID,
		"nodes", g.NumNodes(),
		"edges", g.NumEdges(),
		"anomalies", report.AnomalyCount)
	return report, nil
}

// ModelInfo describes the classifier this service was built with.
func (s *Service) ModelInfo() ModelInfo {
	return ModelInfo{
		ModelType:          s.cfg.Architecture.String(),
		ExpectedAccuracy:   s.cfg.ExpectedAccuracy(),
		Initialized:        true,
		SupportsImportance: s.importance != nil,
	}
}

// Health reports the service's readiness.
func (s *Service) Health() HealthStatus {
	return HealthStatus{
		Status:  StatusHealthy,
		Message: "classifier initialized",
		Details: map[string]any{
			"architecture":        s.cfg.Architecture.String(),
			"input_dim":           s.cfg.InputDim,
			"supports_importance": s.importance != nil,
			"cache_enabled":       s.cache != nil,
		},
	}
}

// scoreGraph runs inference over a built graph and assembles scored edges
// in edge order. The clinical path additionally buckets each edge into an
// anomaly type.
func (s *Service) scoreGraph(g *graph.Graph, threshold float64, clinicalPath bool) ([]ScoredEdge, error) {
	if g.NumEdges() == 0 {
		return []ScoredEdge{}, nil
	}

	x, err := g.FeatureMatrix()
	if err != nil {
		return nil, engineerr.WrapWithKind(engineerr.KindGraphBuilding, "feature matrix", "assembling node features", err)
	}
	edges := g.EdgeIndex()

	var (
		scores []float64
		adj    *mat.Dense
	)
	if s.importance != nil {
		scores, adj, err = s.importance.ForwardWithWeights(x, edges)
	} else {
		scores, err = s.classifier.Forward(x, edges)
	}
	if err != nil {
		return nil, err
	}

	var importances []float64
	if s.importance != nil {
		importances = s.importance.EdgeImportance(adj, edges)
	}

	scored := make([]ScoredEdge, len(g.Edges))
	for i := range g.Edges {
		e := &g.Edges[i]
		se := ScoredEdge{
			EdgeIndex: i,
			OriginID:  e.OriginID,
			Source:    g.Nodes[e.Source].ExternalID,
			Target:    g.Nodes[e.Target].ExternalID,
			Relation:  e.Relation.String(),
			Score:     scores[i],
			IsAnomaly: isAnomalous(scores[i], threshold),
		}

		var imp float64
		if importances != nil {
			imp = importances[i]
			se.Importance = imp
		}

		var bucket string
		if clinicalPath {
			bucket = anomalyBucket(e.Relation)
			se.AnomalyType = bucket
		}

		se.Explanation = synthesizeExplanation(scores[i], imp, importances != nil, bucket)
		se.ContributingFactors = contributingFactors(g, *e)
		scored[i] = se
	}
	return scored, nil
}

func countFlagged(scored []ScoredEdge) int {
	n := 0
	for i := range scored {
		if scored[i].IsAnomaly {
			n++
		}
	}
	return n
}
