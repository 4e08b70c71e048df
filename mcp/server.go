package mcp

import (
	"github.com/ka2n/fhirval/api"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server represents the MCP server for fhirval
type Server struct {
	server *server.MCPServer
}

// NewServer creates a new MCP server backed by svc
func NewServer(svc *api.Service) *Server {
	s := server.NewMCPServer("fhirval", api.Version)
	s.AddTools(InitTools(svc)...)
	return &Server{
		server: s,
	}
}

// Run serves requests on stdin and stdout
func (s *Server) Run() error {
	return server.ServeStdio(s.server)
}

func newServerTool(tool mcp.Tool, handler server.ToolHandlerFunc) server.ServerTool {
	return server.ServerTool{
		Tool:    tool,
		Handler: handler,
	}
}
