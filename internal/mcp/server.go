// Package mcp provides the Model Context Protocol (MCP) server implementation.
//
// This package exposes the variable inspection cache through MCP tools:
//
// Session Management:
//   - inspect_attach: Attach to a running debug adapter over TCP
//   - inspect_disconnect: Disconnect from a session
//   - inspect_sessions: List active sessions
//
// Inspection:
//   - inspect_variables: One page of the cached variable snapshot
//   - inspect_variable: Look up a single cached variable by name
//   - inspect_dataframe_info: Row/column metadata for a tabular variable
//   - inspect_dataframe_rows: A row range of a tabular variable
package mcp

import (
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/varscope/varscope/internal/config"
	"github.com/varscope/varscope/internal/dap"
	"github.com/varscope/varscope/internal/inspect"
)

// Server wraps the MCP server with inspection capabilities
type Server struct {
	mcpServer      *server.MCPServer
	sessionManager *dap.SessionManager
	config         *config.Config

	inspectors map[string]*inspect.Inspector // session ID -> inspector
	mu         sync.RWMutex
}

// NewServer creates a new varscope MCP server
func NewServer(cfg *config.Config) *Server {
	mcpServer := server.NewMCPServer(
		"varscope",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s := &Server{
		mcpServer:      mcpServer,
		sessionManager: dap.NewSessionManager(cfg.MaxSessions, cfg.EvaluateTimeout),
		config:         cfg,
		inspectors:     make(map[string]*inspect.Inspector),
	}

	s.registerTools()

	return s
}

func (s *Server) inspectorFor(sessionID string) (*inspect.Inspector, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	insp, ok := s.inspectors[sessionID]
	return insp, ok
}

func (s *Server) trackInspector(sessionID string, insp *inspect.Inspector) {
	s.mu.Lock()
	s.inspectors[sessionID] = insp
	s.mu.Unlock()
}

func (s *Server) dropInspector(sessionID string) {
	s.mu.Lock()
	if insp, ok := s.inspectors[sessionID]; ok {
		insp.ClearSession()
		delete(s.inspectors, sessionID)
	}
	s.mu.Unlock()
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Close shuts down the server
func (s *Server) Close() {
	s.sessionManager.Close()
}
