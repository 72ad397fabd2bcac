package mcp

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewLenraMCPServer creates a new MCP server with all lenra tools and
// resources registered. The projectPath is the directory holding the
// .lenra-check.yaml of the app under test.
func NewLenraMCPServer(projectPath string) *server.MCPServer {
	s := server.NewMCPServer(
		"lenra",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, projectPath)
	registerResources(s, projectPath)

	return s
}
