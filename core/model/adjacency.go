package model

import "gonum.org/v1/gonum/mat"

// buildAdjacency constructs the dense symmetric adjacency for an edge list.
// Every edge contributes unit weight in both directions; parallel edges do
// not stack.
func buildAdjacency(numNodes int, edges [][2]int) *mat.Dense {
	adj := mat.NewDense(numNodes, numNodes, nil)
	for _, e := range edges {
		adj.Set(e[0], e[1], 1)
		adj.Set(e[1], e[0], 1)
	}
	return adj
}

// addSelfLoops adds unit weight on the diagonal so every node keeps its own
// features during aggregation.
func addSelfLoops(adj *mat.Dense) {
	n, _ := adj.Dims()
	for i := 0; i < n; i++ {
		adj.Set(i, i, adj.At(i, i)+1)
	}
}

// normalizeRows divides each row by its degree, clamped to at least 1 so
// sparse rows cannot blow up the scale.
func normalizeRows(adj *mat.Dense) {
	n, cols := adj.Dims()
	for i := 0; i < n; i++ {
		degree := 0.0
		for j := 0; j < cols; j++ {
			degree += adj.At(i, j)
		}
		if degree < 1 {
			degree = 1
		}
		for j := 0; j < cols; j++ {
			adj.Set(i, j, adj.At(i, j)/degree)
		}
	}
}

// messagePassingAdjacency prepares the aggregation matrix for an edge list:
// symmetric adjacency with self-loops, rows degree-normalized.
func messagePassingAdjacency(numNodes int, edges [][2]int) *mat.Dense {
	adj := buildAdjacency(numNodes, edges)
	addSelfLoops(adj)
	normalizeRows(adj)
	return adj
}
