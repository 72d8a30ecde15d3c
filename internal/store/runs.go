package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/luatgf/luatgf/internal/graph"
	"github.com/luatgf/luatgf/internal/scan"
)

// ErrRunNotFound is returned when a run ID or file has no recorded run.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded scan.
type Run struct {
	ID           int64     `json:"id" yaml:"id"`
	FilePath     string    `json:"file" yaml:"file"`
	LineCount    int       `json:"lines" yaml:"lines"`
	BlankLines   int       `json:"blank_lines" yaml:"blank_lines"`
	Definitions  int       `json:"definitions" yaml:"definitions"`
	Ends         int       `json:"ends" yaml:"ends"`
	CommentLines int       `json:"comment_lines" yaml:"comment_lines"`
	NodeCount    int       `json:"nodes" yaml:"nodes"`
	EdgeCount    int       `json:"edges" yaml:"edges"`
	ScannedAt    time.Time `json:"scanned_at" yaml:"scanned_at"`
}

// RecordRun stores the graph of one scan of path and returns the run ID.
func (s *Store) RecordRun(path string, stats scan.Stats, g *graph.Graph) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO runs (file_path, line_count, blank_lines, definitions, ends, comment_lines, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		path, stats.Lines, stats.BlankLines, stats.Definitions, stats.Ends, stats.CommentLines,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run %s: %w", path, err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	nodeStmt, err := tx.Prepare("INSERT INTO nodes (run_id, label, name) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("prepare node insert: %w", err)
	}
	defer nodeStmt.Close()

	for _, n := range g.Nodes() {
		if _, err := nodeStmt.Exec(runID, n.Label, n.Name); err != nil {
			return 0, fmt.Errorf("insert node %s: %w", n.Name, err)
		}
	}

	edgeStmt, err := tx.Prepare("INSERT INTO edges (run_id, seq, caller, callee) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("prepare edge insert: %w", err)
	}
	defer edgeStmt.Close()

	for i, e := range g.Edges() {
		if _, err := edgeStmt.Exec(runID, i, e.Caller, e.Callee); err != nil {
			return 0, fmt.Errorf("insert edge %s -> %s: %w", e.Caller, e.Callee, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}

	return runID, nil
}

const runColumns = `
	r.id, r.file_path, r.line_count, r.blank_lines, r.definitions, r.ends, r.comment_lines, r.scanned_at,
	(SELECT COUNT(*) FROM nodes n WHERE n.run_id = r.id),
	(SELECT COUNT(*) FROM edges e WHERE e.run_id = r.id)`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var scannedAt string
	err := row.Scan(&run.ID, &run.FilePath, &run.LineCount, &run.BlankLines,
		&run.Definitions, &run.Ends, &run.CommentLines, &scannedAt,
		&run.NodeCount, &run.EdgeCount)
	if err != nil {
		return nil, err
	}
	run.ScannedAt, _ = time.Parse(time.RFC3339, scannedAt)
	return &run, nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id int64) (*Run, error) {
	row := s.db.QueryRow("SELECT"+runColumns+" FROM runs r WHERE r.id = ?", id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("get run %d: %w", id, err)
	}
	return run, nil
}

// LatestRun retrieves the most recent run of path.
func (s *Store) LatestRun(path string) (*Run, error) {
	row := s.db.QueryRow("SELECT"+runColumns+" FROM runs r WHERE r.file_path = ? ORDER BY r.id DESC LIMIT 1", path)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, path)
		}
		return nil, fmt.Errorf("latest run %s: %w", path, err)
	}
	return run, nil
}

// ListRuns returns runs newest first. An empty path lists every file.
// limit <= 0 means no limit.
func (s *Store) ListRuns(path string, limit int) ([]Run, error) {
	query := "SELECT" + runColumns + " FROM runs r"
	var args []interface{}
	if path != "" {
		query += " WHERE r.file_path = ?"
		args = append(args, path)
	}
	query += " ORDER BY r.id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// RunEdges returns the edges of a run in their recorded (sorted) order.
func (s *Store) RunEdges(id int64) ([]scan.Edge, error) {
	if _, err := s.GetRun(id); err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT caller, callee FROM edges WHERE run_id = ? ORDER BY seq", id)
	if err != nil {
		return nil, fmt.Errorf("query edges for run %d: %w", id, err)
	}
	defer rows.Close()

	var edges []scan.Edge
	for rows.Next() {
		var e scan.Edge
		if err := rows.Scan(&e.Caller, &e.Callee); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
