package inspect

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-dap"

	"github.com/varscope/varscope/pkg/types"
)

func detailRespond(expr string, frameID int) (string, error) {
	if strings.HasPrefix(expr, scriptNameVariableInfo+"(") {
		return `'{"count": 2, "shape": "(2,)", "size": 16}'`, nil
	}
	return "None", nil
}

func seedSnapshot(insp *Inspector, n int) {
	vars := make([]dap.Variable, n)
	for i := range vars {
		vars[i] = dap.Variable{
			Name:  fmt.Sprintf("v%d", i),
			Type:  "int",
			Value: fmt.Sprintf("%d", i),
		}
	}
	insp.OnVariables(variablesResponse(vars...))
}

// TestGetVariables_SequentialPage verifies a page of size 3 at index 2
// of a 10-entry snapshot returns exactly entries 2,3,4 in order,
// expanding them one at a time in index order.
func TestGetVariables_SequentialPage(t *testing.T) {
	insp := newTestInspector()
	ev := &fakeEvaluator{respond: detailRespond}
	insp.SetSession(ev)
	seedSnapshot(insp, 10)

	resp := insp.GetVariables(context.Background(), types.VariablesPageRequest{
		ExecutionCount: 7,
		StartIndex:     2,
		PageSize:       3,
	})

	if resp.ExecutionCount != 7 {
		t.Errorf("expected executionCount 7, got %d", resp.ExecutionCount)
	}
	if resp.PageStartIndex != 2 {
		t.Errorf("expected pageStartIndex 2, got %d", resp.PageStartIndex)
	}
	if resp.TotalCount != 10 {
		t.Errorf("expected totalCount 10, got %d", resp.TotalCount)
	}
	if len(resp.PageResponse) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(resp.PageResponse))
	}
	for i, want := range []string{"v2", "v3", "v4"} {
		got := resp.PageResponse[i]
		if got.Name != want {
			t.Errorf("entry %d: expected %s, got %s", i, want, got.Name)
		}
		if got.Truncated {
			t.Errorf("entry %d: expected expanded entry", i)
		}
		if got.Count != 2 || got.Shape != "(2,)" || got.Size != 16 {
			t.Errorf("entry %d: unexpected detail %+v", i, got)
		}
	}

	// Four helper definitions, then one info call per page entry, in
	// snapshot index order.
	wantCalls := len(helperFragments) + 3
	if ev.callCount() != wantCalls {
		t.Fatalf("expected %d evaluate calls, got %d: %v", wantCalls, ev.callCount(), ev.calls)
	}
	infoCalls := ev.calls[len(helperFragments):]
	for i, want := range []string{"v2", "v3", "v4"} {
		wantExpr := fmt.Sprintf("%s(%s)", scriptNameVariableInfo, want)
		if infoCalls[i] != wantExpr {
			t.Errorf("info call %d: expected %q, got %q", i, wantExpr, infoCalls[i])
		}
	}
}

// TestGetVariables_PastEnd verifies the page stops at the snapshot end.
func TestGetVariables_PastEnd(t *testing.T) {
	insp := newTestInspector()
	insp.SetSession(&fakeEvaluator{respond: detailRespond})
	seedSnapshot(insp, 4)

	resp := insp.GetVariables(context.Background(), types.VariablesPageRequest{
		StartIndex: 2,
		PageSize:   10,
	})

	if len(resp.PageResponse) != 2 {
		t.Errorf("expected 2 entries, got %d", len(resp.PageResponse))
	}
	if resp.TotalCount != 4 {
		t.Errorf("expected totalCount 4, got %d", resp.TotalCount)
	}
}

// TestGetVariables_NoSession verifies graceful degradation with no
// active session.
func TestGetVariables_NoSession(t *testing.T) {
	insp := newTestInspector()

	resp := insp.GetVariables(context.Background(), types.VariablesPageRequest{
		ExecutionCount: 3,
		StartIndex:     5,
		PageSize:       10,
	})

	if resp.ExecutionCount != 3 {
		t.Errorf("expected executionCount 3 echoed, got %d", resp.ExecutionCount)
	}
	if resp.PageStartIndex != 0 {
		t.Errorf("expected pageStartIndex 0, got %d", resp.PageStartIndex)
	}
	if len(resp.PageResponse) != 0 {
		t.Errorf("expected empty page, got %d entries", len(resp.PageResponse))
	}
	if resp.TotalCount != 0 {
		t.Errorf("expected totalCount 0, got %d", resp.TotalCount)
	}
}

// TestGetVariables_WriteBack verifies expanded entries are cached: a
// second fetch over the same range issues no further evaluate calls.
func TestGetVariables_WriteBack(t *testing.T) {
	insp := newTestInspector()
	ev := &fakeEvaluator{respond: detailRespond}
	insp.SetSession(ev)
	seedSnapshot(insp, 5)

	insp.GetVariables(context.Background(), types.VariablesPageRequest{PageSize: 5})
	after := ev.callCount()

	resp := insp.GetVariables(context.Background(), types.VariablesPageRequest{PageSize: 5})
	if ev.callCount() != after {
		t.Errorf("expected no further evaluate calls, got %d more", ev.callCount()-after)
	}
	for _, v := range resp.PageResponse {
		if v.Truncated {
			t.Errorf("%s: expected cached expanded entry", v.Name)
		}
	}
}

// TestGetVariables_FailureIsolated verifies one failed expansion leaves
// that entry truncated and does not abort the rest of the page.
func TestGetVariables_FailureIsolated(t *testing.T) {
	insp := newTestInspector()
	ev := &fakeEvaluator{respond: func(expr string, frameID int) (string, error) {
		if strings.Contains(expr, "(v1)") {
			return "", fmt.Errorf("name 'v1' is not defined")
		}
		return detailRespond(expr, frameID)
	}}
	insp.SetSession(ev)
	seedSnapshot(insp, 3)

	resp := insp.GetVariables(context.Background(), types.VariablesPageRequest{PageSize: 3})

	if len(resp.PageResponse) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(resp.PageResponse))
	}
	if resp.PageResponse[0].Truncated || resp.PageResponse[2].Truncated {
		t.Error("expected surrounding entries to expand")
	}
	if !resp.PageResponse[1].Truncated {
		t.Error("expected the failing entry to stay truncated")
	}
}

// TestExpand_Idempotent verifies an already-expanded variable passes
// through without touching the debuggee.
func TestExpand_Idempotent(t *testing.T) {
	insp := newTestInspector()
	ev := &fakeEvaluator{}
	insp.SetSession(ev)

	v := types.Variable{Name: "x", Type: "int", Value: "1", Count: 4, Truncated: false}
	got, err := insp.expand(context.Background(), v)
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	if !reflect.DeepEqual(got, v) {
		t.Errorf("expected variable unchanged, got %+v", got)
	}
	if ev.callCount() != 0 {
		t.Errorf("expected no evaluate calls, got %d", ev.callCount())
	}
}

// TestExpand_DefaultFrame verifies an entry without its own scope is
// evaluated against the current top-frame context.
func TestExpand_DefaultFrame(t *testing.T) {
	insp := newTestInspector()
	ev := &fakeEvaluator{respond: detailRespond}
	insp.SetSession(ev)
	insp.OnStackTrace(stackTraceResponse(42))

	v := types.Variable{Name: "x", Type: "int", Value: "1", Truncated: true}
	if _, err := insp.expand(context.Background(), v); err != nil {
		t.Fatalf("expand failed: %v", err)
	}

	ev.mu.Lock()
	defer ev.mu.Unlock()
	last := ev.frames[len(ev.frames)-1]
	if last != 42 {
		t.Errorf("expected info call in frame 42, got %d", last)
	}
}

// TestGetMatchingVariable verifies name lookup and its no-session
// degradation.
func TestGetMatchingVariable(t *testing.T) {
	insp := newTestInspector()
	insp.SetSession(&fakeEvaluator{})
	seedSnapshot(insp, 3)

	v, ok := insp.GetMatchingVariable("v1")
	if !ok || v.Name != "v1" {
		t.Errorf("expected to find v1, got %+v (ok=%v)", v, ok)
	}

	if _, ok := insp.GetMatchingVariable("missing"); ok {
		t.Error("expected no match for unknown name")
	}

	insp.ClearSession()
	if _, ok := insp.GetMatchingVariable("v1"); ok {
		t.Error("expected no match with no active session")
	}
}
