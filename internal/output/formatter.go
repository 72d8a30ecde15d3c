package output

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/luatgf/luatgf/internal/graph"
)

// Options carries the per-run rendering settings.
type Options struct {
	// File is the scanned path, echoed by YAML and JSON output
	File string
	// Direction is the Mermaid layout direction (default LR)
	Direction Direction
}

// GraphOutput is the document rendered by the YAML and JSON formats.
type GraphOutput struct {
	File  string       `json:"file,omitempty" yaml:"file,omitempty"`
	Nodes []NodeOutput `json:"nodes" yaml:"nodes"`
	Edges []EdgeOutput `json:"edges" yaml:"edges"`
}

// NodeOutput describes one node with its degree and distinct neighbours.
type NodeOutput struct {
	Label     int      `json:"label" yaml:"label"`
	Name      string   `json:"name" yaml:"name"`
	InDegree  int      `json:"in_degree" yaml:"in_degree"`
	OutDegree int      `json:"out_degree" yaml:"out_degree"`
	Calls     []string `json:"calls,omitempty" yaml:"calls,omitempty"`
	CalledBy  []string `json:"called_by,omitempty" yaml:"called_by,omitempty"`
}

// EdgeOutput describes one edge by label and by name.
type EdgeOutput struct {
	From   int    `json:"from" yaml:"from"`
	To     int    `json:"to" yaml:"to"`
	Caller string `json:"caller" yaml:"caller"`
	Callee string `json:"callee" yaml:"callee"`
}

// NewGraphOutput builds the YAML/JSON document for g.
func NewGraphOutput(g *graph.Graph, file string) *GraphOutput {
	out := &GraphOutput{
		File:  file,
		Nodes: make([]NodeOutput, 0, g.NodeCount()),
		Edges: make([]EdgeOutput, 0, g.EdgeCount()),
	}

	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, NodeOutput{
			Label:     n.Label,
			Name:      n.Name,
			InDegree:  g.InDegree(n.Name),
			OutDegree: g.OutDegree(n.Name),
			Calls:     slices.Compact(g.Successors(n.Name)),
			CalledBy:  slices.Compact(g.Predecessors(n.Name)),
		})
	}

	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, EdgeOutput{
			From:   g.Label(e.Caller),
			To:     g.Label(e.Callee),
			Caller: e.Caller,
			Callee: e.Callee,
		})
	}

	return out
}

// Write renders g to w in the given format.
func Write(w io.Writer, f Format, g *graph.Graph, opts Options) error {
	switch f {
	case FormatTGF:
		return WriteTGF(w, g)
	case FormatYAML:
		return writeYAML(w, NewGraphOutput(g, opts.File))
	case FormatJSON:
		return writeJSON(w, NewGraphOutput(g, opts.File))
	case FormatDOT:
		return WriteDOT(w, g)
	case FormatMermaid:
		return WriteMermaid(w, g, opts.Direction)
	default:
		return fmt.Errorf("unsupported format: %q", f)
	}
}

func writeYAML(w io.Writer, v interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
