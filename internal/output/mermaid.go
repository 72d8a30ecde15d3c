package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/luatgf/luatgf/internal/graph"
)

// WriteMermaid writes g as a Mermaid flowchart. Node IDs are "n<label>"
// so that names like "<top level>" never need sanitizing.
func WriteMermaid(w io.Writer, g *graph.Graph, dir Direction) error {
	if dir != DirectionLR && dir != DirectionTD {
		dir = DirectionLR
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "flowchart %s\n", dir)

	for _, n := range g.Nodes() {
		fmt.Fprintf(bw, "    n%d[\"%s\"]\n", n.Label, escapeMermaidString(n.Name))
	}

	for _, e := range g.Edges() {
		fmt.Fprintf(bw, "    n%d --> n%d\n", g.Label(e.Caller), g.Label(e.Callee))
	}

	return bw.Flush()
}

// escapeMermaidString escapes special characters in Mermaid string content.
func escapeMermaidString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "#quot;")
	s = strings.ReplaceAll(s, "<", "#lt;")
	s = strings.ReplaceAll(s, ">", "#gt;")
	return s
}
