package inspect

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/varscope/varscope/internal/errors"
	"github.com/varscope/varscope/pkg/types"
)

// expand fully populates a truncated snapshot entry by evaluating the
// variable-info helper against it. Already-expanded entries are returned
// unchanged without touching the debuggee.
func (insp *Inspector) expand(ctx context.Context, v types.Variable) (types.Variable, error) {
	if !v.Truncated {
		return v, nil
	}

	if insp.activeSession() == nil {
		return v, errors.NoActiveSession()
	}

	if err := insp.ensureImported(ctx); err != nil {
		return v, err
	}

	expr := fmt.Sprintf("%s(%s)", scriptNameVariableInfo, v.Name)
	raw, err := insp.evaluate(ctx, expr, v.FrameID)
	if err != nil {
		return v, errors.EvaluationFailed(expr, err)
	}

	payload, err := stripFraming(raw)
	if err != nil {
		return v, errors.ResultParseFailed(expr, err)
	}

	var detail types.VariableDetail
	if err := json.Unmarshal([]byte(payload), &detail); err != nil {
		return v, errors.ResultParseFailed(expr, err)
	}

	return mergeDetail(v, detail), nil
}

// mergeDetail overlays parsed helper fields onto a shallow entry. The
// result is fully populated, so the truncated marker is cleared.
func mergeDetail(v types.Variable, d types.VariableDetail) types.Variable {
	v.Count = d.Count
	v.Shape = d.Shape
	v.Size = d.Size
	if d.Type != "" {
		v.Type = d.Type
	}
	v.Truncated = false
	return v
}

// stripFraming removes the single marker character the helpers wrap
// around each side of their JSON payload.
func stripFraming(raw string) (string, error) {
	if len(raw) < 2 {
		return "", fmt.Errorf("result %q too short to carry a framed payload", raw)
	}
	return raw[1 : len(raw)-1], nil
}
