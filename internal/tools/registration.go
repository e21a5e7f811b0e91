// Package tools provides shared types and helpers for registering MCP tools
// on an MCP server instance.
package tools

import (
	"github.com/jamesprial/crm-housekeeping/internal/safety"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Registration pairs an MCP tool definition with its handler function.
type Registration struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// RegisterAll adds every Registration whose tool name passes filter to the
// given MCP server and returns the names it registered. A nil filter
// registers everything.
func RegisterAll(s *server.MCPServer, registrations []Registration, filter *safety.Filter) []string {
	registered := make([]string, 0, len(registrations))
	for _, r := range registrations {
		if !filter.IsAllowed(r.Tool.Name) {
			continue
		}
		s.AddTool(r.Tool, r.Handler)
		registered = append(registered, r.Tool.Name)
	}
	return registered
}
