package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luatgf/luatgf/internal/scan"
)

func writeLua(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.lua")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestToolSchemaRegistry(t *testing.T) {
	for _, name := range AllTools {
		schema, ok := toolSchemaRegistry[name]
		require.True(t, ok, "missing schema for %s", name)
		assert.Equal(t, name, schema.Name)
		assert.NotEmpty(t, schema.Description)

		var hasPath bool
		for _, p := range schema.Parameters {
			if p.Name == "path" {
				hasPath = true
				assert.True(t, p.Required, "%s path should be required", name)
			}
		}
		assert.True(t, hasPath, "%s has no path parameter", name)
	}
	assert.Len(t, toolSchemaRegistry, len(AllTools))
}

func TestNew_DefaultTools(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)

	assert.Equal(t, []string{ToolCallGraph, ToolLineCount}, s.ListTools())
	assert.Len(t, s.GetToolSchemas(), 2)
}

func TestNew_UnknownTool(t *testing.T) {
	_, err := New(Config{Tools: []string{"cx_find"}})
	assert.Error(t, err)
}

func TestCallTool_CallGraph(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)
	path := writeLua(t, "function foo()\n  bar()\nend\n")

	got, err := s.CallTool(ToolCallGraph, map[string]interface{}{"path": path})
	require.NoError(t, err)
	assert.Equal(t, "1 bar\n2 foo\n#\n2 1\n", got)
}

func TestCallTool_CallGraphFormat(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)
	path := writeLua(t, "main()\n")

	got, err := s.CallTool(ToolCallGraph, map[string]interface{}{"path": path, "format": "mermaid"})
	require.NoError(t, err)
	assert.Contains(t, got, "flowchart LR")
	assert.Contains(t, got, "n1 --> n2")

	_, err = s.CallTool(ToolCallGraph, map[string]interface{}{"path": path, "format": "png"})
	assert.Error(t, err)
}

func TestCallTool_CustomTopLevel(t *testing.T) {
	s, err := New(Config{TopLevel: "chunk"})
	require.NoError(t, err)
	path := writeLua(t, "main()\n")

	got, err := s.CallTool(ToolCallGraph, map[string]interface{}{"path": path})
	require.NoError(t, err)
	assert.Equal(t, "1 chunk\n2 main\n#\n1 2\n", got)
}

func TestCallTool_LineCount(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)
	path := writeLua(t, "a\n\nb\n\nc\n")

	got, err := s.CallTool(ToolLineCount, map[string]interface{}{"path": path})
	require.NoError(t, err)
	assert.Equal(t, "count: 5", got)
}

func TestCallTool_Errors(t *testing.T) {
	s, err := New(Config{Tools: []string{ToolLineCount}})
	require.NoError(t, err)

	_, err = s.CallTool(ToolCallGraph, map[string]interface{}{"path": "x.lua"})
	assert.Error(t, err, "unregistered tool should fail")

	_, err = s.CallTool(ToolLineCount, map[string]interface{}{})
	assert.Error(t, err, "missing path should fail")

	_, err = s.CallTool(ToolLineCount, map[string]interface{}{"path": filepath.Join(t.TempDir(), "missing.lua")})
	assert.True(t, errors.Is(err, scan.ErrOpen))
}

func TestHandleCallGraph(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)
	path := writeLua(t, "call_one() call_two()\n")

	req := mcp.CallToolRequest{}
	req.Params.Name = ToolCallGraph
	req.Params.Arguments = map[string]interface{}{"path": path}

	res, err := s.handleCallGraph(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)

	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "1 <top level>\n2 call_one\n3 call_two\n#\n1 2\n1 3\n", text.Text)
}

func TestHandleLineCount_MissingPath(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)

	res, err := s.handleLineCount(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
