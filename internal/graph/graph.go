// Package graph builds the labelled call graph emitted by luatgf.
//
// Labels are assigned over the sorted set of distinct node names, so they
// depend only on which names occur and never on the order edges were found.
package graph

import (
	"slices"
	"sort"

	"github.com/luatgf/luatgf/internal/scan"
)

// Node is a named vertex with its output label.
type Node struct {
	Label int    `json:"label" yaml:"label"`
	Name  string `json:"name" yaml:"name"`
}

// Graph represents an in-memory call graph.
type Graph struct {
	edges  []scan.Edge
	nodes  []Node
	labels map[string]int

	// Adjacency list: caller -> callees, in sorted edge order
	out map[string][]string
	// Reverse adjacency: callee -> callers
	in map[string][]string
}

// New sorts a copy of edges by (caller, callee) and labels every distinct
// name 1..N in ascending name order. Duplicate edges are kept.
func New(edges []scan.Edge) *Graph {
	sorted := make([]scan.Edge, len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Less(sorted[j])
	})

	g := &Graph{
		edges:  sorted,
		labels: make(map[string]int),
		out:    make(map[string][]string),
		in:     make(map[string][]string),
	}

	names := make([]string, 0, len(sorted)*2)
	for _, e := range sorted {
		names = append(names, e.Caller, e.Callee)

		g.out[e.Caller] = append(g.out[e.Caller], e.Callee)
		g.in[e.Callee] = append(g.in[e.Callee], e.Caller)
	}
	slices.Sort(names)
	names = slices.Compact(names)

	g.nodes = make([]Node, len(names))
	for i, name := range names {
		g.nodes[i] = Node{Label: i + 1, Name: name}
		g.labels[name] = i + 1
	}

	return g
}

// Nodes returns all nodes in ascending label order.
func (g *Graph) Nodes() []Node {
	return slices.Clone(g.nodes)
}

// Edges returns the edges sorted by (caller, callee).
func (g *Graph) Edges() []scan.Edge {
	return slices.Clone(g.edges)
}

// Label returns the label of name, or 0 if name is not a node.
func (g *Graph) Label(name string) int {
	return g.labels[name]
}

// NodeCount returns the number of distinct names in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges, duplicates included.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Successors returns the callees of a node in sorted order, with repeats.
func (g *Graph) Successors(name string) []string {
	return slices.Clone(g.out[name])
}

// Predecessors returns the callers of a node in sorted order, with repeats.
func (g *Graph) Predecessors(name string) []string {
	return slices.Clone(g.in[name])
}

// OutDegree returns the number of outgoing edges from a node.
func (g *Graph) OutDegree(name string) int {
	return len(g.out[name])
}

// InDegree returns the number of incoming edges to a node.
func (g *Graph) InDegree(name string) int {
	return len(g.in[name])
}

// Roots returns names that are never called, in label order.
func (g *Graph) Roots() []string {
	var roots []string
	for _, n := range g.nodes {
		if g.InDegree(n.Name) == 0 {
			roots = append(roots, n.Name)
		}
	}
	return roots
}

// Leaves returns names that call nothing, in label order.
func (g *Graph) Leaves() []string {
	var leaves []string
	for _, n := range g.nodes {
		if g.OutDegree(n.Name) == 0 {
			leaves = append(leaves, n.Name)
		}
	}
	return leaves
}
