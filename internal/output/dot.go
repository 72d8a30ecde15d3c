package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/luatgf/luatgf/internal/graph"
)

// WriteDOT writes g as a Graphviz digraph. Nodes are keyed by label and
// carry their name as the display label.
func WriteDOT(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "digraph CallGraph {\n")
	fmt.Fprintf(bw, "  node [shape=box, style=filled, fillcolor=lightblue];\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(bw, "  n%d [label=%s];\n", n.Label, strconv.Quote(n.Name))
	}

	for _, e := range g.Edges() {
		fmt.Fprintf(bw, "  n%d -> n%d;\n", g.Label(e.Caller), g.Label(e.Callee))
	}

	fmt.Fprintf(bw, "}\n")

	return bw.Flush()
}
