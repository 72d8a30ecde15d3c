// Package scan extracts caller/callee edges from Lua source with a
// line-oriented heuristic scanner. It does not parse Lua: function
// definitions are recognized by an anchored pattern, calls by an
// identifier followed by an opening parenthesis, and function ends by a
// line that starts with "end".
package scan

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

// TopLevel is the default name of the bottom stack frame.
const TopLevel = "<top level>"

// maxLineSize bounds a single source line read by Scan and CountLines.
// Longer lines fail with bufio.ErrTooLong.
const maxLineSize = 64 * 1024 * 1024

var (
	// functionDef only recognizes named functions declared at column zero.
	functionDef = regexp.MustCompile(`^function +([A-Za-z_][A-Za-z0-9_]*)`)

	// Only the identifier before the first paren is captured, so nested
	// calls like f(g(), h()) yield f, g and h without overlapping.
	functionCall = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\(`)
)

const (
	commentOpen  = "--[["
	commentClose = "]]"
	endPrefix    = "end"
)

// ErrOpen is returned when the input file cannot be opened.
var ErrOpen = errors.New("cannot open")

// ErrInvalidUTF8 is returned by Scan for a line that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("invalid UTF-8")

// Edge is a call from Caller to Callee.
type Edge struct {
	Caller string `json:"caller" yaml:"caller"`
	Callee string `json:"callee" yaml:"callee"`
}

// Less orders edges by caller, then callee.
func (e Edge) Less(o Edge) bool {
	if e.Caller != o.Caller {
		return e.Caller < o.Caller
	}
	return e.Callee < o.Callee
}

// Stats counts what the scanner saw.
type Stats struct {
	Lines        int `json:"lines" yaml:"lines"`
	BlankLines   int `json:"blank_lines" yaml:"blank_lines"`
	Definitions  int `json:"definitions" yaml:"definitions"`
	Calls        int `json:"calls" yaml:"calls"`
	Ends         int `json:"ends" yaml:"ends"`
	CommentLines int `json:"comment_lines" yaml:"comment_lines"`
}

// Result is the outcome of scanning a whole input.
type Result struct {
	Edges []Edge
	Stats Stats
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithTopLevel sets the name of the bottom stack frame.
func WithTopLevel(name string) Option {
	return func(s *Scanner) {
		s.topLevel = name
	}
}

// WithLogger sets the logger used for per-line debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Scanner holds the state of one scan. It is not safe for concurrent use.
type Scanner struct {
	topLevel  string
	logger    *slog.Logger
	stack     Stack
	edges     []Edge
	inComment bool
	stats     Stats
}

// New returns a Scanner whose stack holds only the top-level frame.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		topLevel: TopLevel,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stack.Push(s.topLevel)
	return s
}

// ScanLine processes a single line of source.
//
// The checks run in a fixed order: definition, calls, end, comment. A
// definition line is consumed by the definition check alone. Comment mode
// is tracked but never suppresses the other checks.
func (s *Scanner) ScanLine(line string) {
	s.stats.Lines++

	if isBlank(line) {
		s.stats.BlankLines++
		return
	}

	if m := functionDef.FindStringSubmatch(line); m != nil {
		s.stack.Push(m[1])
		s.stats.Definitions++
		s.logger.Debug("function definition", "name", m[1], "depth", s.stack.Len())
		return
	}

	if caller, ok := s.stack.Top(); ok {
		for _, m := range functionCall.FindAllStringSubmatch(line, -1) {
			s.edges = append(s.edges, Edge{Caller: caller, Callee: m[1]})
			s.stats.Calls++
		}
	}

	if strings.HasPrefix(line, endPrefix) {
		name, ok := s.stack.Pop()
		s.stats.Ends++
		s.logger.Debug("function end", "name", name, "popped", ok, "depth", s.stack.Len())
	}

	if !s.inComment && strings.Contains(line, commentOpen) {
		s.inComment = true
	}
	if s.inComment {
		s.stats.CommentLines++
		if strings.Contains(line, commentClose) {
			s.inComment = false
		}
	}
}

// Edges returns the edges recorded so far, in encounter order.
func (s *Scanner) Edges() []Edge {
	out := make([]Edge, len(s.edges))
	copy(out, s.edges)
	return out
}

// Stack returns a copy of the function stack, bottom first.
func (s *Scanner) Stack() []string {
	return s.stack.Items()
}

// InComment reports whether the scanner is inside a --[[ ]] block.
func (s *Scanner) InComment() bool {
	return s.inComment
}

// Stats returns the counters accumulated so far.
func (s *Scanner) Stats() Stats {
	return s.stats
}

// Result returns the edges and stats accumulated so far.
func (s *Scanner) Result() *Result {
	return &Result{Edges: s.Edges(), Stats: s.stats}
}

// Scan reads r line by line and returns the recorded edges.
// A read error or a line that is not valid UTF-8 aborts the scan.
func Scan(r io.Reader, opts ...Option) (*Result, error) {
	s := New(opts...)

	sc := newLineScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := sc.Text()
		if !utf8.ValidString(line) {
			return nil, fmt.Errorf("line %d: %w", n, ErrInvalidUTF8)
		}
		s.ScanLine(line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading lines: %w", err)
	}

	return s.Result(), nil
}

// ScanFile opens path and scans it.
func ScanFile(path string, opts ...Option) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	defer f.Close()

	res, err := Scan(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// CountLines returns the number of lines in r, blank lines included.
// A trailing newline does not start a new line. Line contents are not
// decoded, so invalid UTF-8 is counted like any other line.
func CountLines(r io.Reader) (int, error) {
	sc := newLineScanner(r)
	n := 0
	for sc.Scan() {
		n++
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("reading lines: %w", err)
	}
	return n, nil
}

// CountFileLines opens path and counts its lines.
func CountFileLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	defer f.Close()

	n, err := CountLines(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return sc
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
