// Package inspect implements the variable inspection cache.
//
// An Inspector owns the per-session state: the filtered snapshot of the
// debuggee's visible variables, the current top-frame context, and the
// helper import flag. It is fed passively through OnStackTrace and
// OnVariables as protocol responses arrive, and queried through the paged
// facade in query.go, which lazily expands truncated entries by
// evaluating injected helper functions in the paused debuggee.
package inspect

import (
	"context"
	"strings"
	"sync"

	"github.com/google/go-dap"

	"github.com/varscope/varscope/internal/config"
	"github.com/varscope/varscope/internal/errors"
	"github.com/varscope/varscope/pkg/types"
)

// Evaluator sends one expression to the paused debuggee and blocks until
// it responds. *dap.Session implements this.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string, frameID int) (string, error)
}

// dataExplorerTypes is the fixed whitelist of tabular/array-like type
// names that the data explorer can render.
var dataExplorerTypes = map[string]struct{}{
	"DataFrame": {},
	"Series":    {},
	"ndarray":   {},
	"Tensor":    {},
	"list":      {},
	"dict":      {},
}

// reservedNames are interactive-shell bookkeeping bindings, never user data.
var reservedNames = map[string]struct{}{
	"In":   {},
	"Out":  {},
	"exit": {},
	"quit": {},
}

// Inspector holds the cached inspection state for one debug session
type Inspector struct {
	mu         sync.Mutex
	session    Evaluator
	snapshot   []types.Variable
	generation uint64
	frameID    int

	importMu sync.Mutex
	imported bool

	excluded map[string]struct{}
	pageSize int

	refreshMu sync.Mutex
	refresh   []func()
}

// NewInspector creates an inspector with no active session
func NewInspector(cfg *config.Config) *Inspector {
	return &Inspector{
		excluded: cfg.ExcludedTypeSet(),
		pageSize: cfg.DefaultPageSize,
	}
}

// SetSession installs the evaluator for a newly attached session and
// resets all cached state. A new debuggee never has the helper
// definitions, so the import flag is cleared along with the snapshot.
func (insp *Inspector) SetSession(ev Evaluator) {
	insp.importMu.Lock()
	insp.imported = false
	insp.importMu.Unlock()

	insp.mu.Lock()
	insp.session = ev
	insp.snapshot = nil
	insp.frameID = 0
	insp.generation++
	insp.mu.Unlock()
}

// ClearSession drops the active session and all cached state
func (insp *Inspector) ClearSession() {
	insp.SetSession(nil)
}

func (insp *Inspector) activeSession() Evaluator {
	insp.mu.Lock()
	defer insp.mu.Unlock()
	return insp.session
}

func (insp *Inspector) currentFrame() int {
	insp.mu.Lock()
	defer insp.mu.Unlock()
	return insp.frameID
}

// evaluate dispatches one expression to the debuggee. A zero scope falls
// back to the current top-frame context.
func (insp *Inspector) evaluate(ctx context.Context, code string, scope int) (string, error) {
	ev := insp.activeSession()
	if ev == nil {
		return "", errors.NoActiveSession()
	}
	if scope == 0 {
		scope = insp.currentFrame()
	}
	return ev.Evaluate(ctx, code, scope)
}

// OnStackTrace updates the frame context from a stack-trace response.
// The first frame is the innermost one; an empty trace leaves the
// context unchanged. The frame id is not revalidated across resume and
// pause cycles, but the stop pump refreshes it on every stopped event,
// which keeps the staleness window to a single pause.
func (insp *Inspector) OnStackTrace(resp *dap.StackTraceResponse) {
	if resp == nil || len(resp.Body.StackFrames) == 0 {
		return
	}
	insp.mu.Lock()
	insp.frameID = resp.Body.StackFrames[0].Id
	insp.mu.Unlock()
}

// OnVariables replaces the snapshot wholesale from a variables response
// and fires the refresh notification exactly once, even when the
// filtered result is unchanged or empty.
func (insp *Inspector) OnVariables(resp *dap.VariablesResponse) {
	if resp == nil {
		return
	}

	snapshot := make([]types.Variable, 0, len(resp.Body.Variables))
	seen := make(map[string]int, len(resp.Body.Variables))
	for _, record := range resp.Body.Variables {
		v, ok := insp.filterVariable(record)
		if !ok {
			continue
		}
		// Names are unique within a snapshot; last one in wins.
		if idx, dup := seen[v.Name]; dup {
			snapshot[idx] = v
			continue
		}
		seen[v.Name] = len(snapshot)
		snapshot = append(snapshot, v)
	}

	insp.mu.Lock()
	insp.snapshot = snapshot
	insp.generation++
	insp.mu.Unlock()

	insp.fireRefresh()
}

// filterVariable applies the snapshot admission rules to one raw record
// and normalizes it into a truncated cache entry.
func (insp *Inspector) filterVariable(record dap.Variable) (types.Variable, bool) {
	if record.Name == "" || record.Type == "" || record.Value == "" {
		return types.Variable{}, false
	}
	if _, excluded := insp.excluded[record.Type]; excluded {
		return types.Variable{}, false
	}
	if strings.HasPrefix(record.Name, "_") {
		return types.Variable{}, false
	}
	if _, reserved := reservedNames[record.Name]; reserved {
		return types.Variable{}, false
	}
	if record.Type == "NoneType" {
		return types.Variable{}, false
	}

	_, explorable := dataExplorerTypes[record.Type]
	return types.Variable{
		Name:                 record.Name,
		Type:                 record.Type,
		Value:                record.Value,
		SupportsDataExplorer: explorable,
		Truncated:            true,
		FrameID:              record.VariablesReference,
	}, true
}

// OnRefresh registers a callback fired after every snapshot replacement.
// Callbacks only observe notifications fired after registration.
func (insp *Inspector) OnRefresh(fn func()) {
	insp.refreshMu.Lock()
	insp.refresh = append(insp.refresh, fn)
	insp.refreshMu.Unlock()
}

func (insp *Inspector) fireRefresh() {
	insp.refreshMu.Lock()
	subscribers := make([]func(), len(insp.refresh))
	copy(subscribers, insp.refresh)
	insp.refreshMu.Unlock()

	for _, fn := range subscribers {
		fn()
	}
}
