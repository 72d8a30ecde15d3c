package output

import (
	"bufio"
	"io"
	"strconv"

	"github.com/luatgf/luatgf/internal/graph"
)

// TGFSeparator divides node declarations from edge declarations.
const TGFSeparator = "#"

// WriteTGF writes g in Trivial Graph Format: one "<label> <name>" line per
// node in label order, a "#" line, then one "<label> <label>" line per
// edge in sorted edge order.
func WriteTGF(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)

	for _, n := range g.Nodes() {
		bw.WriteString(strconv.Itoa(n.Label))
		bw.WriteByte(' ')
		bw.WriteString(n.Name)
		bw.WriteByte('\n')
	}

	bw.WriteString(TGFSeparator)
	bw.WriteByte('\n')

	for _, e := range g.Edges() {
		bw.WriteString(strconv.Itoa(g.Label(e.Caller)))
		bw.WriteByte(' ')
		bw.WriteString(strconv.Itoa(g.Label(e.Callee)))
		bw.WriteByte('\n')
	}

	return bw.Flush()
}
