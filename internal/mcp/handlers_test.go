package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	dap "github.com/google/go-dap"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/varscope/varscope/internal/config"
	"github.com/varscope/varscope/internal/inspect"
	"github.com/varscope/varscope/pkg/types"
)

// fakeEvaluator answers helper evaluations with canned dataframe
// metadata and a single-row page, recording every expression.
type fakeEvaluator struct {
	calls []string
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, expression string, frameID int) (string, error) {
	f.calls = append(f.calls, expression)
	switch {
	case strings.HasPrefix(expression, "__vs_dataframe_info("):
		return `'{"rowCount": 20, "columnCount": 2}'`, nil
	case strings.HasPrefix(expression, "__vs_dataframe_rows("):
		return `'{"rows": [{"a": 1}]}'`, nil
	}
	return "None", nil
}

func (f *fakeEvaluator) lastCall() string {
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

// newTestServer returns a server with one tracked inspector whose
// snapshot holds a single DataFrame variable named df.
func newTestServer(t *testing.T) (*Server, *fakeEvaluator) {
	t.Helper()

	cfg := config.DefaultConfig()
	s := &Server{
		config:     cfg,
		inspectors: make(map[string]*inspect.Inspector),
	}

	insp := inspect.NewInspector(cfg)
	ev := &fakeEvaluator{}
	insp.SetSession(ev)
	insp.OnVariables(&dap.VariablesResponse{
		Body: dap.VariablesResponseBody{
			Variables: []dap.Variable{
				{Name: "df", Type: "DataFrame", Value: "<df>", VariablesReference: 7},
			},
		},
	})
	s.trackInspector("sess-1", insp)
	return s, ev
}

func rowsRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = "inspect_dataframe_rows"
	req.Params.Arguments = args
	return req
}

func decodeRowPage(t *testing.T, result *mcp.CallToolResult) types.DataFrameRowPage {
	t.Helper()

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	var page types.DataFrameRowPage
	if err := json.Unmarshal([]byte(text.Text), &page); err != nil {
		t.Fatalf("failed to decode row page: %v", err)
	}
	return page
}

// TestHandleInspectDataFrameRows_DefaultEnd verifies a request without
// an end index fetches the full row range after metadata enrichment,
// even though the cached entry's row count is still zero.
func TestHandleInspectDataFrameRows_DefaultEnd(t *testing.T) {
	s, ev := newTestServer(t)

	result, err := s.handleInspectDataFrameRows(context.Background(), rowsRequest(map[string]interface{}{
		"sessionId": "sess-1",
		"name":      "df",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %+v", result.Content)
	}

	wantExpr := "__vs_dataframe_rows(df, 0, 20)"
	if got := ev.lastCall(); got != wantExpr {
		t.Errorf("expected rows expression %q, got %q", wantExpr, got)
	}

	page := decodeRowPage(t, result)
	if len(page.Rows) != 1 {
		t.Errorf("expected 1 row, got %d", len(page.Rows))
	}
}

// TestHandleInspectDataFrameRows_ExplicitEndClamped verifies an
// explicit end index past the enriched row count is clamped.
func TestHandleInspectDataFrameRows_ExplicitEndClamped(t *testing.T) {
	s, ev := newTestServer(t)

	result, err := s.handleInspectDataFrameRows(context.Background(), rowsRequest(map[string]interface{}{
		"sessionId": "sess-1",
		"name":      "df",
		"start":     float64(5),
		"end":       float64(1000),
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %+v", result.Content)
	}

	wantExpr := "__vs_dataframe_rows(df, 5, 20)"
	if got := ev.lastCall(); got != wantExpr {
		t.Errorf("expected rows expression %q, got %q", wantExpr, got)
	}
}
