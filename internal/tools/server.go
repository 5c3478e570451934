package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/debemdeboas/x-mcp/internal/config"
)

// NewServer builds an MCP server exposing every tool backed by h.
func NewServer(cfg config.ServerConfig, h *Handlers) *server.MCPServer {
	s := server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	h.Register(s)
	return s
}

func (h *Handlers) Register(s *server.MCPServer) {
	for _, op := range Operations {
		s.AddTool(op.Tool(), h.callTool)
	}
}

// callTool resolves the requested tool by name and reports failures as tool
// error results so the agent sees the message instead of a protocol error.
func (h *Handlers) callTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op, err := ParseOperation(req.Params.Name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := h.Dispatch(ctx, op, req.Params.Arguments)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}
