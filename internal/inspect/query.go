package inspect

import (
	"context"
	"log"

	"github.com/varscope/varscope/pkg/types"
)

// GetVariables returns one page of the cached snapshot, expanding each
// truncated entry in index order, one at a time. Expanded entries are
// written back into the snapshot so repeated calls over the same range do
// not re-expand; the write-back is discarded if the snapshot was replaced
// while the expansion was in flight. A failed expansion leaves that entry
// truncated and the page continues.
func (insp *Inspector) GetVariables(ctx context.Context, req types.VariablesPageRequest) types.VariablesPageResponse {
	resp := types.VariablesPageResponse{
		ExecutionCount: req.ExecutionCount,
		PageResponse:   []types.Variable{},
	}

	if insp.activeSession() == nil {
		return resp
	}

	start := req.StartIndex
	if start < 0 {
		start = 0
	}
	chunk := req.PageSize
	if chunk <= 0 {
		chunk = insp.pageSize
	}
	resp.PageStartIndex = start

	for i := start; i < start+chunk; i++ {
		insp.mu.Lock()
		if i >= len(insp.snapshot) {
			insp.mu.Unlock()
			break
		}
		v := insp.snapshot[i]
		gen := insp.generation
		insp.mu.Unlock()

		if !v.Truncated {
			resp.PageResponse = append(resp.PageResponse, v)
			continue
		}

		expanded, err := insp.expand(ctx, v)
		if err != nil {
			log.Printf("expansion failed for variable %s: %v", v.Name, err)
			resp.PageResponse = append(resp.PageResponse, v)
			continue
		}

		insp.mu.Lock()
		if insp.generation == gen && i < len(insp.snapshot) && insp.snapshot[i].Name == expanded.Name {
			insp.snapshot[i] = expanded
		}
		insp.mu.Unlock()

		resp.PageResponse = append(resp.PageResponse, expanded)
	}

	// Snapshot length at return time, not call time.
	insp.mu.Lock()
	resp.TotalCount = len(insp.snapshot)
	insp.mu.Unlock()

	return resp
}

// GetMatchingVariable returns the first snapshot entry with the given
// name. With no active session there is never a match.
func (insp *Inspector) GetMatchingVariable(name string) (types.Variable, bool) {
	insp.mu.Lock()
	defer insp.mu.Unlock()

	if insp.session == nil {
		return types.Variable{}, false
	}

	for _, v := range insp.snapshot {
		if v.Name == name {
			return v, true
		}
	}
	return types.Variable{}, false
}
