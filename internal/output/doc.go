// Package output renders call graphs for luatgf.
//
// # Overview
//
// TGF is the primary format and the only one with a byte-exact contract:
//
//	1 bar
//	2 foo
//	#
//	2 1
//
// Node lines come first in label order, then a "#" separator, then one
// line per call edge sorted by caller name and callee name. Labels are
// assigned 1..N over the sorted distinct names, so the same input always
// produces the same bytes.
//
// # Other Formats
//
//   - yaml, json: a GraphOutput document with file, nodes and edges
//   - dot: a Graphviz digraph
//   - mermaid: a flowchart in LR or TD direction
//
// All formats render the same node and edge sets from a *graph.Graph.
package output
