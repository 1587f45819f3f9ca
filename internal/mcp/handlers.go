package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/varscope/varscope/internal/errors"
	"github.com/varscope/varscope/internal/inspect"
	"github.com/varscope/varscope/pkg/types"
)

// Session Management Handlers

func (s *Server) handleInspectAttach(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	host := "127.0.0.1"
	if h, err := request.RequireString("host"); err == nil {
		host = h
	}

	port, err := request.RequireFloat("port")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("port",
			"Specify the TCP port the debug adapter is listening on.").Error()), nil
	}

	address := fmt.Sprintf("%s:%d", host, int(port))
	session, err := s.sessionManager.Connect(address)
	if err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	insp := inspect.NewInspector(s.config)
	session.SetObserver(insp)
	insp.SetSession(session)
	s.trackInspector(session.ID, insp)

	if err := session.Attach(map[string]interface{}{
		"host": host,
		"port": port,
	}); err != nil {
		s.dropInspector(session.ID)
		_ = s.sessionManager.TerminateSession(session.ID)
		return mcp.NewToolResultError(errors.AttachFailed(err).Error()), nil
	}

	return jsonResult(session.Info())
}

func (s *Server) handleInspectDisconnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("sessionId")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("sessionId",
			"Specify the session ID returned by inspect_attach.").Error()), nil
	}

	s.dropInspector(sessionID)
	if err := s.sessionManager.TerminateSession(sessionID); err != nil {
		return mcp.NewToolResultError(errors.SessionNotFound(sessionID).Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("session %s disconnected", sessionID)), nil
}

func (s *Server) handleInspectSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.sessionManager.ListSessions())
}

// Inspection Handlers

func (s *Server) handleInspectVariables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	insp, result := s.requireInspector(request)
	if result != nil {
		return result, nil
	}

	req := types.VariablesPageRequest{}
	if v, err := request.RequireFloat("startIndex"); err == nil {
		req.StartIndex = int(v)
	}
	if v, err := request.RequireFloat("pageSize"); err == nil {
		req.PageSize = int(v)
	}
	if v, err := request.RequireFloat("executionCount"); err == nil {
		req.ExecutionCount = int(v)
	}

	return jsonResult(insp.GetVariables(ctx, req))
}

func (s *Server) handleInspectVariable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	insp, result := s.requireInspector(request)
	if result != nil {
		return result, nil
	}

	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("name",
			"Specify the variable name to look up.").Error()), nil
	}

	v, ok := insp.GetMatchingVariable(name)
	if !ok {
		return mcp.NewToolResultText("null"), nil
	}
	return jsonResult(v)
}

func (s *Server) handleInspectDataFrameInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	insp, result := s.requireInspector(request)
	if result != nil {
		return result, nil
	}

	v, result := requireVariable(insp, request)
	if result != nil {
		return result, nil
	}

	info, err := insp.GetDataFrameInfo(ctx, v)
	if err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}
	return jsonResult(info)
}

func (s *Server) handleInspectDataFrameRows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	insp, result := s.requireInspector(request)
	if result != nil {
		return result, nil
	}

	v, result := requireVariable(insp, request)
	if result != nil {
		return result, nil
	}

	start := 0
	if f, err := request.RequireFloat("start"); err == nil {
		start = int(f)
	}
	end, endGiven := v.RowCount, false
	if f, err := request.RequireFloat("end"); err == nil {
		end, endGiven = int(f), true
	}

	// Row clamping needs the row count; fetch metadata when the cached
	// entry has not been through inspect_dataframe_info yet.
	if v.RowCount == 0 {
		enriched, err := insp.GetDataFrameInfo(ctx, v)
		if err != nil {
			return mcp.NewToolResultError(errors.FromError(err).Error()), nil
		}
		v = enriched
		if !endGiven || end > v.RowCount {
			end = v.RowCount
		}
	}

	rows, err := insp.GetDataFrameRows(ctx, v, start, end)
	if err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}
	return jsonResult(rows)
}

// Helpers

func (s *Server) requireInspector(request mcp.CallToolRequest) (*inspect.Inspector, *mcp.CallToolResult) {
	sessionID, err := request.RequireString("sessionId")
	if err != nil {
		return nil, mcp.NewToolResultError(errors.MissingParameter("sessionId",
			"Specify the session ID returned by inspect_attach.").Error())
	}

	insp, ok := s.inspectorFor(sessionID)
	if !ok {
		return nil, mcp.NewToolResultError(errors.SessionNotFound(sessionID).Error())
	}
	return insp, nil
}

func requireVariable(insp *inspect.Inspector, request mcp.CallToolRequest) (types.Variable, *mcp.CallToolResult) {
	name, err := request.RequireString("name")
	if err != nil {
		return types.Variable{}, mcp.NewToolResultError(errors.MissingParameter("name",
			"Specify the name of the tabular variable.").Error())
	}

	v, ok := insp.GetMatchingVariable(name)
	if !ok {
		return types.Variable{}, mcp.NewToolResultError(errors.InvalidParameter("name", name,
			"the name of a variable present in the current snapshot").Error())
	}
	return v, nil
}

func jsonResult(data interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
