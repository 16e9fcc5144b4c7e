// Package mcp implements the Model Context Protocol server for Itinero.
//
// It exposes itinerary generation as an MCP tool so that assistants can
// plan trips through the same engine as the HTTP preview endpoint.
package mcp

import (
	"context"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/itinero-app/itinero/internal/model"
)

// Generator builds an itinerary for a trip request.
type Generator interface {
	Generate(ctx context.Context, req model.TripRequest) (model.Itinerary, error)
}

// Server wraps the MCP server with the itinerary engine.
type Server struct {
	mcpServer *mcpserver.MCPServer
	engine    Generator
	logger    *slog.Logger
}

// New creates and configures a new MCP server with its tools, prompts and
// resources.
func New(engine Generator, logger *slog.Logger, version string) *Server {
	s := &Server{
		engine: engine,
		logger: logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"itinero",
		version,
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithToolCapabilities(true),
	)

	s.registerTools()
	s.registerPrompts()
	s.registerResources()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
