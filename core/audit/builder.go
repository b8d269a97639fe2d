package audit

import (
	"strings"

	"github.com/anomalab/edgegraph/core/encode"
	"github.com/anomalab/edgegraph/core/engineerr"
	"github.com/anomalab/edgegraph/core/graph"
)

// GraphBuilder turns ordered audit events into a scoring graph.
type GraphBuilder struct {
	classifier *EntityClassifier
	encoder    *encode.Encoder
}

// NewGraphBuilder creates a builder using the given classifier and encoder.
func NewGraphBuilder(classifier *EntityClassifier, encoder *encode.Encoder) *GraphBuilder {
	return &GraphBuilder{classifier: classifier, encoder: encoder}
}

// Build assembles a graph from events in input order. Each event contributes
// exactly one edge, so edge count always equals event count and parallel
// edges between the same entity pair are preserved. Node indices follow
// first-seen entity order, making repeated builds over identical input
// reproducible. An empty event list yields an empty graph without error.
func (b *GraphBuilder) Build(events []LogEvent) (*graph.Graph, error) {
	g := graph.New()

	for _, ev := range events {
		if err := validateEvent(ev); err != nil {
			return nil, err
		}

		src := g.ResolveNode(ev.SourceEntity, b.classifier.Classify(ev.SourceEntity), nil)
		dst := g.ResolveNode(ev.DestinationEntity, b.classifier.Classify(ev.DestinationEntity), nil)

		err := g.AddEdge(graph.Edge{
			Source:   src,
			Target:   dst,
			Relation: graph.RelationGeneric,
			Weight:   1.0,
			OriginID: ev.EventID,
			Metadata: ev.Metadata,
		})
		if err != nil {
			return nil, engineerr.NewGraphBuildingError(
				"edges", "appending event edge", err,
			).WithOffendingID(ev.EventID)
		}
	}

	// Encode once all nodes are known so feature rows line up with the
	// final index assignment.
	for i := range g.Nodes {
		n := &g.Nodes[i]
		n.Features = b.encoder.Encode(n.ExternalID, n.Type, n.Metadata)
	}

	return g, nil
}

func validateEvent(ev LogEvent) error {
	if strings.TrimSpace(ev.EventID) == "" {
		return engineerr.NewGraphBuildingError("validate", "empty event identifier", nil)
	}
	if strings.TrimSpace(ev.SourceEntity) == "" {
		return engineerr.NewGraphBuildingError(
			"validate", "empty source entity", nil,
		).WithOffendingID(ev.EventID)
	}
	if strings.TrimSpace(ev.DestinationEntity) == "" {
		return engineerr.NewGraphBuildingError(
			"validate", "empty destination entity", nil,
		).WithOffendingID(ev.EventID)
	}
	return nil
}
