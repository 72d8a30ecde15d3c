// Package mcp provides an MCP (Model Context Protocol) server for luatgf.
// Agents call the scanner through MCP tools instead of spawning the CLI.
package mcp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/luatgf/luatgf/internal/graph"
	"github.com/luatgf/luatgf/internal/output"
	"github.com/luatgf/luatgf/internal/scan"
)

// Tool names.
const (
	ToolCallGraph = "lua_call_graph"
	ToolLineCount = "lua_line_count"
)

// AllTools lists all available tools
var AllTools = []string{ToolCallGraph, ToolLineCount}

// Server wraps the MCP server with luatgf-specific functionality
type Server struct {
	mcpServer    *server.MCPServer
	cfg          Config
	tools        map[string]bool
	lastActivity time.Time
	mu           sync.RWMutex
}

// Config holds server configuration
type Config struct {
	Tools     []string      // Which tools to expose (empty = all)
	Timeout   time.Duration // Inactivity timeout (0 = no timeout)
	TopLevel  string        // Bottom stack frame name (empty = scan.TopLevel)
	Format    output.Format // Default format for lua_call_graph (empty = tgf)
	Direction output.Direction
	Version   string
	Logger    *slog.Logger
}

// New creates a new MCP server for luatgf
func New(cfg Config) (*Server, error) {
	if cfg.TopLevel == "" {
		cfg.TopLevel = scan.TopLevel
	}
	if cfg.Format == "" {
		cfg.Format = output.DefaultFormat
	}
	if cfg.Direction == "" {
		cfg.Direction = output.DirectionLR
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	mcpServer := server.NewMCPServer(
		"luatgf",
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer:    mcpServer,
		cfg:          cfg,
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = AllTools
	}

	for _, toolName := range toolsToRegister {
		if err := s.registerTool(toolName); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
		s.tools[toolName] = true
	}

	return s, nil
}

// registerTool registers a single tool with the MCP server
func (s *Server) registerTool(name string) error {
	switch name {
	case ToolCallGraph:
		return s.registerCallGraphTool()
	case ToolLineCount:
		return s.registerLineCountTool()
	default:
		return fmt.Errorf("unknown tool: %s", name)
	}
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	if s.cfg.Timeout > 0 {
		go s.timeoutChecker()
	}

	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.cfg.Timeout {
			s.cfg.Logger.Info("mcp server idle, exiting", "timeout", s.cfg.Timeout)
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// ListTools returns the registered tool names, sorted
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	return tools
}

// ToolSchema describes a tool's name, description, and parameters.
type ToolSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Parameters  []ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// toolSchemaRegistry holds the schema definitions for all tools.
// These mirror the mcp.NewTool() definitions in the register*Tool() functions.
var toolSchemaRegistry = map[string]ToolSchema{
	ToolCallGraph: {
		Name:        ToolCallGraph,
		Description: "Build the call graph of a Lua file. Returns TGF by default: node lines, '#', edge lines.",
		Parameters: []ParameterSchema{
			{Name: "path", Type: "string", Description: "Path to the Lua file", Required: true},
			{Name: "format", Type: "string", Description: "Output format: tgf, yaml, json, dot, mermaid"},
		},
	},
	ToolLineCount: {
		Name:        ToolLineCount,
		Description: "Count the lines of a file, blank lines included.",
		Parameters: []ParameterSchema{
			{Name: "path", Type: "string", Description: "Path to the file", Required: true},
		},
	},
}

// GetToolSchemas returns schemas for all registered tools, sorted by name.
func (s *Server) GetToolSchemas() []ToolSchema {
	schemas := make([]ToolSchema, 0, len(s.tools))
	for _, name := range s.ListTools() {
		if schema, ok := toolSchemaRegistry[name]; ok {
			schemas = append(schemas, schema)
		}
	}
	return schemas
}

// CallTool dispatches a tool call by name with the given arguments.
// Returns the text result or an error.
func (s *Server) CallTool(name string, args map[string]interface{}) (string, error) {
	s.mu.RLock()
	registered := s.tools[name]
	s.mu.RUnlock()

	if !registered {
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	path, _ := args["path"].(string)
	if path == "" {
		return "", fmt.Errorf("path parameter is required")
	}

	switch name {
	case ToolCallGraph:
		format, _ := args["format"].(string)
		return s.executeCallGraph(path, format)
	case ToolLineCount:
		return s.executeLineCount(path)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// registerCallGraphTool registers the lua_call_graph tool
func (s *Server) registerCallGraphTool() error {
	tool := mcp.NewTool(ToolCallGraph,
		mcp.WithDescription(toolSchemaRegistry[ToolCallGraph].Description),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the Lua file"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: tgf, yaml, json, dot, mermaid"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleCallGraph)
	return nil
}

// registerLineCountTool registers the lua_line_count tool
func (s *Server) registerLineCountTool() error {
	tool := mcp.NewTool(ToolLineCount,
		mcp.WithDescription(toolSchemaRegistry[ToolLineCount].Description),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the file"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleLineCount)
	return nil
}

func (s *Server) handleCallGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return mcp.NewToolResultError("path parameter is required"), nil
	}
	format, _ := args["format"].(string)

	result, err := s.executeCallGraph(path, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleLineCount(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return mcp.NewToolResultError("path parameter is required"), nil
	}

	result, err := s.executeLineCount(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) executeCallGraph(path, format string) (string, error) {
	f := s.cfg.Format
	if format != "" {
		parsed, err := output.ParseFormat(format)
		if err != nil {
			return "", err
		}
		f = parsed
	}

	res, err := scan.ScanFile(path, scan.WithTopLevel(s.cfg.TopLevel))
	if err != nil {
		return "", err
	}
	g := graph.New(res.Edges)

	s.cfg.Logger.Debug("call graph tool", "path", path, "format", f,
		"nodes", g.NodeCount(), "edges", g.EdgeCount())

	var buf bytes.Buffer
	if err := output.Write(&buf, f, g, output.Options{File: path, Direction: s.cfg.Direction}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Server) executeLineCount(path string) (string, error) {
	n, err := scan.CountFileLines(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("count: %d", n), nil
}
