package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/urmzd/remo/pkg/device"
)

// Server wraps the MCP server with the appliance control tools
type Server struct {
	mcpServer  *server.MCPServer
	controller device.Controller
}

// NewServer creates a new MCP server for device control
func NewServer(controller device.Controller, version string) *Server {
	s := &Server{
		controller: controller,
	}

	s.mcpServer = server.NewMCPServer(
		"remo",
		version,
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// ServeStdio starts the MCP server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
