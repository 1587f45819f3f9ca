package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools registers the inspection tool API
func (s *Server) registerTools() {
	// Session management
	s.registerInspectAttach()
	s.registerInspectDisconnect()
	s.registerInspectSessions()

	// Inspection
	s.registerInspectVariables()
	s.registerInspectVariable()
	s.registerInspectDataFrameInfo()
	s.registerInspectDataFrameRows()
}

func (s *Server) registerInspectAttach() {
	tool := mcp.NewTool("inspect_attach",
		mcp.WithDescription("Attach to a running debug adapter over TCP and start observing its variables. Returns sessionId needed for all other tools."),
		mcp.WithString("host",
			mcp.Description("Host address of the debug adapter (default: 127.0.0.1)"),
		),
		mcp.WithNumber("port",
			mcp.Description("Port of the debug adapter"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleInspectAttach)
}

func (s *Server) registerInspectDisconnect() {
	tool := mcp.NewTool("inspect_disconnect",
		mcp.WithDescription("Disconnect from an inspection session and discard its cached state."),
		mcp.WithString("sessionId",
			mcp.Description("Session ID returned by inspect_attach"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleInspectDisconnect)
}

func (s *Server) registerInspectSessions() {
	tool := mcp.NewTool("inspect_sessions",
		mcp.WithDescription("List active inspection sessions."),
	)
	s.mcpServer.AddTool(tool, s.handleInspectSessions)
}

func (s *Server) registerInspectVariables() {
	tool := mcp.NewTool("inspect_variables",
		mcp.WithDescription("Return one page of the cached variable snapshot for a session, fully expanding each entry in the page. With no paused debuggee the page is empty."),
		mcp.WithString("sessionId",
			mcp.Description("Session ID returned by inspect_attach"),
		),
		mcp.WithNumber("startIndex",
			mcp.Description("Snapshot index the page starts at (default: 0)"),
		),
		mcp.WithNumber("pageSize",
			mcp.Description("Maximum number of entries to return (default: 100)"),
		),
		mcp.WithNumber("executionCount",
			mcp.Description("Opaque counter echoed back in the response"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleInspectVariables)
}

func (s *Server) registerInspectVariable() {
	tool := mcp.NewTool("inspect_variable",
		mcp.WithDescription("Look up a single cached variable by name."),
		mcp.WithString("sessionId",
			mcp.Description("Session ID returned by inspect_attach"),
		),
		mcp.WithString("name",
			mcp.Description("Variable name to look up"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleInspectVariable)
}

func (s *Server) registerInspectDataFrameInfo() {
	tool := mcp.NewTool("inspect_dataframe_info",
		mcp.WithDescription("Fetch row/column metadata for a tabular (dataframe/array-like) variable."),
		mcp.WithString("sessionId",
			mcp.Description("Session ID returned by inspect_attach"),
		),
		mcp.WithString("name",
			mcp.Description("Name of the tabular variable"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleInspectDataFrameInfo)
}

func (s *Server) registerInspectDataFrameRows() {
	tool := mcp.NewTool("inspect_dataframe_rows",
		mcp.WithDescription("Fetch a row range of a tabular variable. The end index is clamped to the variable's row count."),
		mcp.WithString("sessionId",
			mcp.Description("Session ID returned by inspect_attach"),
		),
		mcp.WithString("name",
			mcp.Description("Name of the tabular variable"),
		),
		mcp.WithNumber("start",
			mcp.Description("First row index, inclusive"),
		),
		mcp.WithNumber("end",
			mcp.Description("Last row index, exclusive"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleInspectDataFrameRows)
}
