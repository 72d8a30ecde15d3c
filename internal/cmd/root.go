// Package cmd contains all CLI commands for luatgf.
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/luatgf/luatgf/internal/config"
	"github.com/luatgf/luatgf/internal/graph"
	"github.com/luatgf/luatgf/internal/output"
	"github.com/luatgf/luatgf/internal/scan"
	"github.com/luatgf/luatgf/internal/store"
)

var (
	// Version is the current version of luatgf
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configPath string
	dbPath     string

	// Root flags
	countOnly    bool
	outputFormat string
	direction    string
	forAgents    bool
)

// rootCmd represents the base command: scan one Lua file and print its call graph
var rootCmd = &cobra.Command{
	Use:   "luatgf [flags] FILE",
	Short: "Emit the call graph of a Lua file as TGF",
	Long: `luatgf takes a .lua file and outputs a .tgf file representing its call graph.

The scanner works line by line with regular expressions, not a parser:
  - "function name" at the start of a line opens a function
  - every "ident(" on other lines is a call from the innermost open function
  - a line starting with "end" closes the innermost function
Calls outside any function are attributed to "<top level>".

Output Format (TGF):
  <label> <name>      one line per function, labels assigned in name order
  #                   separator
  <label> <label>     one line per call, sorted by caller then callee

Other formats (--format): yaml, json, dot, mermaid.

Examples:
  luatgf game.lua                    # TGF call graph
  luatgf --count game.lua            # Only count lines
  luatgf -f mermaid game.lua         # Mermaid flowchart
  luatgf --db .luatgf/runs.db a.lua  # Also record the run
  luatgf serve                       # MCP server on stdio`,
	Version:       Version,
	Args:          requireFile,
	RunE:          runRoot,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func execute(args []string, stdout, stderr io.Writer) error {
	rootCmd.SetArgs(preferFileArg(rootCmd, args))
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.Execute()
}

// preferFileArg moves the first positional argument behind "--" when it
// names both a subcommand and an existing regular file, so "luatgf init"
// scans a file called init instead of running the init command.
func preferFileArg(root *cobra.Command, args []string) []string {
	if slices.Contains(args, "--") {
		return args
	}

	i := firstPositional(root, args)
	if i < 0 || !isSubcommand(root, args[i]) || !isRegularFile(args[i]) {
		return args
	}

	out := make([]string, 0, len(args)+1)
	out = append(out, args[:i]...)
	out = append(out, args[i+1:]...)
	return append(out, "--", args[i])
}

// firstPositional returns the index of the first argument that is neither
// a flag nor a flag's value, or -1.
func firstPositional(root *cobra.Command, args []string) int {
	flags := root.LocalFlags()
	takesValue := func(f *pflag.Flag) bool {
		return f != nil && f.NoOptDefVal == ""
	}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case strings.HasPrefix(a, "--"):
			if !strings.Contains(a, "=") && takesValue(flags.Lookup(a[2:])) {
				i++
			}
		case strings.HasPrefix(a, "-") && len(a) > 1:
			if len(a) == 2 && takesValue(flags.ShorthandLookup(a[1:])) {
				i++
			}
		default:
			return i
		}
	}
	return -1
}

func isSubcommand(root *cobra.Command, name string) bool {
	// help and completion are only attached once Execute runs.
	if name == "help" || name == "completion" {
		return true
	}
	for _, c := range root.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Print extra info on stderr in addition to the graph")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: .luatgf/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Record runs in this SQLite database (default: store.path from config)")

	rootCmd.Flags().BoolVarP(&countOnly, "count", "c", false, "Instead of anything else, just output the line count of the file")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", string(output.DefaultFormat), "Output format ("+output.FormatList("|")+")")
	rootCmd.Flags().StringVar(&direction, "direction", string(output.DirectionLR), "Mermaid layout direction (LR|TD)")
	rootCmd.Flags().BoolVar(&forAgents, "for-agents", false, "Output machine-readable capability discovery JSON")
}

// errMissingFile is returned when no input file is given
var errMissingFile = errors.New("requires a FILE argument")

func requireFile(cmd *cobra.Command, args []string) error {
	if forAgents {
		return nil
	}
	switch len(args) {
	case 0:
		return errMissingFile
	case 1:
		return nil
	default:
		return fmt.Errorf("accepts a single FILE argument, received %d", len(args))
	}
}

// graphOptions holds the resolved settings for one run of the root command
type graphOptions struct {
	Count     bool
	Format    output.Format
	Direction output.Direction
	TopLevel  string
	DBPath    string
}

func runRoot(cmd *cobra.Command, args []string) error {
	if forAgents {
		return outputAgentHelp(cmd.OutOrStdout(), cmd.Root())
	}

	logger := newLogger(cmd.ErrOrStderr(), verbose)

	// Count mode short-circuits everything else, config included.
	if countOnly {
		return runGraph(cmd.OutOrStdout(), logger, args[0], graphOptions{Count: true})
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts, err := resolveGraphOptions(cmd, cfg)
	if err != nil {
		return err
	}

	return runGraph(cmd.OutOrStdout(), logger, args[0], opts)
}

// loadConfig loads --config when given, otherwise searches from the working directory.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
		}
		return config.LoadFromPath(configPath)
	}
	return config.Load(".")
}

// resolveGraphOptions merges explicitly set flags over config values.
func resolveGraphOptions(cmd *cobra.Command, cfg *config.Config) (graphOptions, error) {
	formatStr := cfg.Output.DefaultFormat
	if cmd.Flags().Changed("format") {
		formatStr = outputFormat
	}
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return graphOptions{}, err
	}

	dirStr := cfg.Output.Direction
	if cmd.Flags().Changed("direction") {
		dirStr = direction
	}
	dir, err := output.ParseDirection(dirStr)
	if err != nil {
		return graphOptions{}, err
	}

	db := cfg.Store.Path
	if cmd.Flags().Changed("db") {
		db = dbPath
	}

	return graphOptions{
		Format:    format,
		Direction: dir,
		TopLevel:  cfg.Scan.TopLevelName,
		DBPath:    db,
	}, nil
}

// runGraph scans path and writes the result to w. Nothing is written to w
// unless the whole scan succeeds.
func runGraph(w io.Writer, logger *slog.Logger, path string, opts graphOptions) error {
	if opts.Count {
		n, err := scan.CountFileLines(path)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "count: %d\n", n)
		return err
	}

	scanOpts := []scan.Option{scan.WithLogger(logger)}
	if opts.TopLevel != "" {
		scanOpts = append(scanOpts, scan.WithTopLevel(opts.TopLevel))
	}

	res, err := scan.ScanFile(path, scanOpts...)
	if err != nil {
		return err
	}

	g := graph.New(res.Edges)

	logger.Debug("scan complete",
		"file", path,
		"lines", res.Stats.Lines,
		"blank_lines", res.Stats.BlankLines,
		"definitions", res.Stats.Definitions,
		"calls", res.Stats.Calls,
		"ends", res.Stats.Ends,
		"comment_lines", res.Stats.CommentLines,
	)
	logger.Debug("graph built", "nodes", g.NodeCount(), "edges", g.EdgeCount(),
		"roots", g.Roots(), "leaves", g.Leaves())

	if opts.DBPath != "" {
		if err := recordRun(logger, opts.DBPath, path, res.Stats, g); err != nil {
			return err
		}
	}

	if opts.Format == "" {
		opts.Format = output.DefaultFormat
	}
	return output.Write(w, opts.Format, g, output.Options{File: path, Direction: opts.Direction})
}

func recordRun(logger *slog.Logger, db, path string, stats scan.Stats, g *graph.Graph) error {
	s, err := store.Open(db)
	if err != nil {
		return fmt.Errorf("opening run store: %w", err)
	}
	defer s.Close()

	id, err := s.RecordRun(path, stats, g)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	logger.Debug("run recorded", "db", s.Path(), "run_id", id)
	return nil
}

// CommandInfo represents a command for agent discovery
type CommandInfo struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Usage       string        `json:"usage"`
	Flags       []FlagInfo    `json:"flags,omitempty"`
	Subcommands []CommandInfo `json:"subcommands,omitempty"`
	Examples    []string      `json:"examples,omitempty"`
}

// FlagInfo represents a command flag for agent discovery
type FlagInfo struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
}

// outputAgentHelp outputs machine-readable JSON describing all commands
func outputAgentHelp(w io.Writer, root *cobra.Command) error {
	info := buildCommandInfo(root)

	out := map[string]interface{}{
		"version":     Version,
		"usage":       info.Usage,
		"flags":       info.Flags,
		"subcommands": info.Subcommands,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// buildCommandInfo recursively builds command information for agent discovery
func buildCommandInfo(cmd *cobra.Command) CommandInfo {
	info := CommandInfo{
		Name:        cmd.Name(),
		Description: cmd.Short,
		Usage:       cmd.UseLine(),
	}

	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		info.Flags = append(info.Flags, FlagInfo{
			Name:        f.Name,
			Shorthand:   f.Shorthand,
			Description: f.Usage,
			Type:        f.Value.Type(),
			Default:     f.DefValue,
		})
	})

	for _, sub := range cmd.Commands() {
		if !sub.Hidden && sub.Name() != "help" && sub.Name() != "completion" {
			info.Subcommands = append(info.Subcommands, buildCommandInfo(sub))
		}
	}

	if cmd.Example != "" {
		for _, line := range strings.Split(cmd.Example, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				info.Examples = append(info.Examples, trimmed)
			}
		}
	}

	return info
}
