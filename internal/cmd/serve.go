package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luatgf/luatgf/internal/config"
	"github.com/luatgf/luatgf/internal/mcp"
	"github.com/luatgf/luatgf/internal/output"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server for AI agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

Agents call the scanner through MCP tools instead of spawning luatgf for
every file. Stdout carries the protocol; logs go to stderr.

Available Tools:
  lua_call_graph   Call graph of a Lua file (tgf, yaml, json, dot, mermaid)
  lua_line_count   Line count of a file

Examples:
  luatgf serve                          # Start with all tools
  luatgf serve --tools call_graph       # Only the call graph tool
  luatgf serve --timeout 0              # Never exit on inactivity
  luatgf serve --list-tools             # Show available tools`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveTools     string
	serveTimeout   string
	serveListTools bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveTools, "tools", "", "Comma-separated list of tools to expose (default: serve.tools from config)")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "", "Inactivity timeout, 0 for none (default: serve.timeout from config)")
	serveCmd.Flags().BoolVar(&serveListTools, "list-tools", false, "List available tools")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveListTools {
		return listTools(cmd.OutOrStdout())
	}

	logger := newLogger(cmd.ErrOrStderr(), verbose)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	serveCfg := cfg.Serve
	if cmd.Flags().Changed("timeout") {
		serveCfg.Timeout = serveTimeout
	}
	timeout, err := serveCfg.TimeoutDuration()
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	tools := serveCfg.Tools
	if cmd.Flags().Changed("tools") {
		tools = parseToolList(serveTools)
	}

	format, err := output.ParseFormat(cfg.Output.DefaultFormat)
	if err != nil {
		return err
	}
	dir, err := output.ParseDirection(cfg.Output.Direction)
	if err != nil {
		return err
	}

	server, err := mcp.New(mcp.Config{
		Tools:     tools,
		Timeout:   timeout,
		TopLevel:  cfg.Scan.TopLevelName,
		Format:    format,
		Direction: dir,
		Version:   Version,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down")
		os.Exit(0)
	}()

	logger.Info("starting MCP server", "tools", server.ListTools(), "timeout", timeout)

	return server.ServeStdio()
}

// parseToolList splits a comma-separated list, allowing shorthand
// names without the "lua_" prefix (call_graph -> lua_call_graph).
func parseToolList(s string) []string {
	var tools []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, "lua_") {
			t = "lua_" + t
		}
		tools = append(tools, t)
	}
	return tools
}

// listTools prints the schema of every tool the server can expose.
func listTools(w io.Writer) error {
	server, err := mcp.New(mcp.Config{Tools: mcp.AllTools, Version: Version})
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Available MCP tools:")
	for _, schema := range server.GetToolSchemas() {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n      %s\n", schema.Name, schema.Description)
		for _, p := range schema.Parameters {
			req := ""
			if p.Required {
				req = ", required"
			}
			fmt.Fprintf(w, "      - %s (%s%s): %s\n", p.Name, p.Type, req, p.Description)
		}
	}
	fmt.Fprintln(w)
	_, err = fmt.Fprintf(w, "Default set: %s\n", strings.Join(config.DefaultTools, ", "))
	return err
}
