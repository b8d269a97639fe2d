package graph

import "fmt"

// Metadata is the side table the clinical path returns alongside a graph so
// callers can map scored edges back onto record entries. Node-aligned slices
// are ordered by node index, edge-aligned slices by edge order.
type Metadata struct {
	// PatientID is the record's patient identifier.
	PatientID string `json:"patient_id"`

	// NodeMap maps node index to external id.
	NodeMap map[int]string `json:"node_map"`

	// NodeTypes holds one entry per node, in node-index order.
	NodeTypes []NodeType `json:"node_types"`

	// NodeMeta holds one metadata map per node, in node-index order.
	NodeMeta []map[string]string `json:"node_metadata,omitempty"`

	// EdgeTypes holds one relation per edge, aligned with edge order.
	EdgeTypes []RelationType `json:"edge_types"`

	// EdgeMeta holds one metadata map per edge, aligned with edge order.
	EdgeMeta []map[string]string `json:"edge_metadata,omitempty"`

	// EdgeWeights holds one weight per edge, aligned with edge order.
	EdgeWeights []float64 `json:"edge_weights"`
}

// BuildMetadata derives the metadata tables from the graph's current nodes
// and edges.
func (g *Graph) BuildMetadata(patientID string) *Metadata {
	md := &Metadata{
		PatientID:   patientID,
		NodeMap:     make(map[int]string, len(g.Nodes)),
		NodeTypes:   make([]NodeType, len(g.Nodes)),
		NodeMeta:    make([]map[string]string, len(g.Nodes)),
		EdgeTypes:   make([]RelationType, len(g.Edges)),
		EdgeMeta:    make([]map[string]string, len(g.Edges)),
		EdgeWeights: make([]float64, len(g.Edges)),
	}

	for i, n := range g.Nodes {
		md.NodeMap[n.Index] = n.ExternalID
		md.NodeTypes[i] = n.Type
		md.NodeMeta[i] = n.Metadata
	}
	for i, e := range g.Edges {
		md.EdgeTypes[i] = e.Relation
		md.EdgeMeta[i] = e.Metadata
		md.EdgeWeights[i] = e.Weight
	}
	return md
}

// Validate checks the metadata invariants against the given graph sizes:
// one type entry per node and one relation entry per edge.
func (md *Metadata) Validate(numNodes, numEdges int) error {
	if len(md.NodeTypes) != numNodes {
		return fmt.Errorf("metadata has %d node types for %d nodes", len(md.NodeTypes), numNodes)
	}
	if len(md.EdgeTypes) != numEdges {
		return fmt.Errorf("metadata has %d edge types for %d edges", len(md.EdgeTypes), numEdges)
	}
	if len(md.EdgeWeights) != numEdges {
		return fmt.Errorf("metadata has %d edge weights for %d edges", len(md.EdgeWeights), numEdges)
	}
	if len(md.NodeMap) != numNodes {
		return fmt.Errorf("metadata node map has %d entries for %d nodes", len(md.NodeMap), numNodes)
	}
	return nil
}
