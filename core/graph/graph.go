package graph

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNodeIndexOutOfRange indicates an edge referenced a node index the
	// graph does not contain.
	ErrNodeIndexOutOfRange = errors.New("node index out of range")

	// ErrMissingFeatures indicates FeatureMatrix was called before every
	// node had an encoded feature vector.
	ErrMissingFeatures = errors.New("node has no feature vector")

	// ErrRaggedFeatures indicates node feature vectors of differing lengths.
	ErrRaggedFeatures = errors.New("node feature vectors have differing lengths")
)

// Graph is the typed relation graph consumed by one inference call. It owns
// its node and edge lists; builders create it fresh per call and nothing is
// shared across calls. Node indices are dense, zero based, and assigned in
// first-seen order so identical input ordering reproduces identical graphs.
type Graph struct {
	Nodes []Node
	Edges []Edge

	byExternalID map[string]int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{byExternalID: make(map[string]int)}
}

// ResolveNode returns the index for externalID, creating the node on first
// sight. The first occurrence wins: repeated resolutions keep the original
// type and metadata regardless of later arguments.
func (g *Graph) ResolveNode(externalID string, t NodeType, metadata map[string]string) int {
	if idx, ok := g.byExternalID[externalID]; ok {
		return idx
	}

	idx := len(g.Nodes)
	g.Nodes = append(g.Nodes, Node{
		Index:      idx,
		ExternalID: externalID,
		Type:       t,
		Metadata:   metadata,
	})
	g.byExternalID[externalID] = idx
	return idx
}

// NodeIndex returns the index for externalID if the node exists.
func (g *Graph) NodeIndex(externalID string) (int, bool) {
	idx, ok := g.byExternalID[externalID]
	return idx, ok
}

// AddEdge appends an edge between two existing nodes. Parallel edges are
// kept; the edge order is the append order.
func (g *Graph) AddEdge(e Edge) error {
	if e.Source < 0 || e.Source >= len(g.Nodes) {
		return fmt.Errorf("edge %q source %d: %w", e.OriginID, e.Source, ErrNodeIndexOutOfRange)
	}
	if e.Target < 0 || e.Target >= len(g.Nodes) {
		return fmt.Errorf("edge %q target %d: %w", e.OriginID, e.Target, ErrNodeIndexOutOfRange)
	}
	g.Edges = append(g.Edges, e)
	return nil
}

// NumNodes returns the node count.
func (g *Graph) NumNodes() int {
	return len(g.Nodes)
}

// NumEdges returns the edge count.
func (g *Graph) NumEdges() int {
	return len(g.Edges)
}

// EdgeIndex returns the (source, target) node-index pairs in edge order.
func (g *Graph) EdgeIndex() [][2]int {
	pairs := make([][2]int, len(g.Edges))
	for i, e := range g.Edges {
		pairs[i] = [2]int{e.Source, e.Target}
	}
	return pairs
}

// EdgeWeights returns the edge weights in edge order.
func (g *Graph) EdgeWeights() []float64 {
	weights := make([]float64, len(g.Edges))
	for i, e := range g.Edges {
		weights[i] = e.Weight
	}
	return weights
}

// OriginIDs returns the per-edge origin record identifiers in edge order.
func (g *Graph) OriginIDs() []string {
	ids := make([]string, len(g.Edges))
	for i, e := range g.Edges {
		ids[i] = e.OriginID
	}
	return ids
}

// FeatureMatrix assembles the numNodes x dim feature matrix in node-index
// order. Every node must carry a feature vector of the same length.
func (g *Graph) FeatureMatrix() (*mat.Dense, error) {
	if len(g.Nodes) == 0 {
		return nil, nil
	}

	dim := len(g.Nodes[0].Features)
	if dim == 0 {
		return nil, fmt.Errorf("node %q: %w", g.Nodes[0].ExternalID, ErrMissingFeatures)
	}

	x := mat.NewDense(len(g.Nodes), dim, nil)
	for i, n := range g.Nodes {
		if len(n.Features) == 0 {
			return nil, fmt.Errorf("node %q: %w", n.ExternalID, ErrMissingFeatures)
		}
		if len(n.Features) != dim {
			return nil, fmt.Errorf("node %q has %d features, want %d: %w",
				n.ExternalID, len(n.Features), dim, ErrRaggedFeatures)
		}
		x.SetRow(i, n.Features)
	}
	return x, nil
}
