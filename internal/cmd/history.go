package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/luatgf/luatgf/internal/graph"
	"github.com/luatgf/luatgf/internal/output"
	"github.com/luatgf/luatgf/internal/store"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [FILE]",
	Short: "List or re-emit recorded runs",
	Long: `List scan runs recorded with --db (or store.path in config), newest first.

With --show, re-emit the graph of a recorded run without reading the
source file again. With FILE and --latest, re-emit the newest run of FILE.

Examples:
  luatgf history --db runs.db                 # All runs
  luatgf history --db runs.db game.lua        # Runs of one file
  luatgf history --db runs.db --show 3        # TGF of run 3
  luatgf history --db runs.db --latest a.lua  # TGF of the newest run of a.lua`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var (
	historyShow   int64
	historyLatest bool
	historyLimit  int
	historyFormat string
)

// errNoStore is returned when history is used without a configured database
var errNoStore = errors.New("no run store configured: pass --db or set store.path")

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int64Var(&historyShow, "show", 0, "Re-emit the graph of this run ID")
	historyCmd.Flags().BoolVar(&historyLatest, "latest", false, "Re-emit the newest run of FILE")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list (0 for all)")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "", "Output format for re-emitted graphs, "+output.FormatList("|")+" (default: output.default_format from config)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db := cfg.Store.Path
	if cmd.Flags().Changed("db") {
		db = dbPath
	}
	if db == "" {
		return errNoStore
	}

	s, err := store.Open(db)
	if err != nil {
		return fmt.Errorf("opening run store: %w", err)
	}
	defer s.Close()

	file := ""
	if len(args) == 1 {
		file = args[0]
	}

	formatStr := cfg.Output.DefaultFormat
	if cmd.Flags().Changed("format") {
		formatStr = historyFormat
	}
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	switch {
	case historyShow != 0:
		return showRun(cmd.OutOrStdout(), s, historyShow, format)
	case historyLatest:
		if file == "" {
			return fmt.Errorf("--latest requires a FILE argument")
		}
		run, err := s.LatestRun(file)
		if err != nil {
			return err
		}
		return showRun(cmd.OutOrStdout(), s, run.ID, format)
	default:
		runs, err := s.ListRuns(file, historyLimit)
		if err != nil {
			return err
		}
		if err := writeRunTable(cmd.OutOrStdout(), runs); err != nil {
			return err
		}
		stats, err := s.GetStats()
		if err != nil {
			return err
		}
		return writeStoreSummary(cmd.OutOrStdout(), stats)
	}
}

// showRun rebuilds the graph of a recorded run and renders it.
func showRun(w io.Writer, s *store.Store, id int64, format output.Format) error {
	run, err := s.GetRun(id)
	if err != nil {
		return err
	}

	edges, err := s.RunEdges(id)
	if err != nil {
		return err
	}

	return output.Write(w, format, graph.New(edges), output.Options{File: run.FilePath})
}

// writeStoreSummary prints totals across every recorded run.
func writeStoreSummary(w io.Writer, stats *store.Stats) error {
	_, err := fmt.Fprintf(w, "\n%d runs, %d nodes, %d edges in store\n",
		stats.RunCount, stats.NodeCount, stats.EdgeCount)
	return err
}

func writeRunTable(w io.Writer, runs []store.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCANNED\tLINES\tNODES\tEDGES\tFILE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.ScannedAt.Local().Format(time.DateTime), r.LineCount, r.NodeCount, r.EdgeCount, r.FilePath)
	}
	return tw.Flush()
}
