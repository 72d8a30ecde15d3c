package output

import (
	"fmt"
	"slices"
	"strings"
)

// Format represents the output format type.
type Format string

const (
	// FormatTGF is the Trivial Graph Format: node lines, "#", edge lines
	FormatTGF Format = "tgf"

	// FormatYAML is a self-describing YAML document
	FormatYAML Format = "yaml"

	// FormatJSON is the JSON equivalent of FormatYAML
	FormatJSON Format = "json"

	// FormatDOT is a Graphviz digraph
	FormatDOT Format = "dot"

	// FormatMermaid is a Mermaid flowchart
	FormatMermaid Format = "mermaid"
)

// DefaultFormat is the default output format when none is specified.
const DefaultFormat = FormatTGF

// ValidFormats lists every accepted format, in help order.
var ValidFormats = []Format{FormatTGF, FormatYAML, FormatJSON, FormatDOT, FormatMermaid}

// ParseFormat parses a format string into a Format value.
// Accepts the names in ValidFormats, case-insensitive.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !ValidateFormat(f) {
		return "", fmt.Errorf("invalid format: %q (expected one of %s)", s, FormatList(", "))
	}
	return f, nil
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// ValidateFormat checks if a format value is valid.
func ValidateFormat(f Format) bool {
	return slices.Contains(ValidFormats, f)
}

// FormatList joins ValidFormats with sep, for help and error text.
func FormatList(sep string) string {
	names := make([]string, len(ValidFormats))
	for i, f := range ValidFormats {
		names[i] = string(f)
	}
	return strings.Join(names, sep)
}

// Direction is a Mermaid flowchart layout direction.
type Direction string

const (
	// DirectionLR lays the graph out left to right
	DirectionLR Direction = "LR"

	// DirectionTD lays the graph out top down
	DirectionTD Direction = "TD"
)

// ParseDirection parses "LR" or "TD" (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LR":
		return DirectionLR, nil
	case "TD":
		return DirectionTD, nil
	default:
		return "", fmt.Errorf("invalid direction: %q (expected LR or TD)", s)
	}
}
