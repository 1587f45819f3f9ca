package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/varscope/varscope/internal/errors"
	"github.com/varscope/varscope/pkg/types"
)

// helperFragments are defined in the debuggee in this exact order: the
// bootstrap aliases must exist before any helper body references them.
var helperFragments = []struct {
	name   string
	source string
}{
	{"bootstrap", bootstrapScript},
	{scriptNameDataFrameInfo, dataFrameInfoScript},
	{scriptNameDataFrameRows, dataFrameRowsScript},
	{scriptNameVariableInfo, variableInfoScript},
}

// ensureImported defines the helper fragments in the debuggee once per
// session. Definitions target the global scope, so no frame is supplied.
// A failed batch is logged and leaves the flag false; the next call site
// that needs the helpers retries the whole batch.
func (insp *Inspector) ensureImported(ctx context.Context) error {
	insp.importMu.Lock()
	defer insp.importMu.Unlock()

	if insp.imported {
		return nil
	}

	ev := insp.activeSession()
	if ev == nil {
		return errors.NoActiveSession()
	}

	for _, fragment := range helperFragments {
		if _, err := ev.Evaluate(ctx, fragment.source, 0); err != nil {
			ierr := errors.HelperImportFailed(fragment.name, err)
			log.Printf("helper import failed: %v", ierr)
			return ierr
		}
	}

	insp.imported = true
	return nil
}

// GetDataFrameInfo enriches a variable with dataframe metadata (row and
// column counts, column schema). With no active session the input is
// returned unchanged.
func (insp *Inspector) GetDataFrameInfo(ctx context.Context, v types.Variable) (types.Variable, error) {
	if insp.activeSession() == nil {
		return v, nil
	}

	if err := insp.ensureImported(ctx); err != nil {
		return v, err
	}

	expr := fmt.Sprintf("%s(%s)", scriptNameDataFrameInfo, v.Name)
	raw, err := insp.evaluate(ctx, expr, v.FrameID)
	if err != nil {
		return v, errors.EvaluationFailed(expr, err)
	}

	payload, err := stripFraming(raw)
	if err != nil {
		return v, errors.ResultParseFailed(expr, err)
	}

	var info types.DataFrameInfo
	if err := json.Unmarshal([]byte(payload), &info); err != nil {
		return v, errors.ResultParseFailed(expr, err)
	}

	merged := v
	merged.RowCount = info.RowCount
	merged.ColumnCount = info.ColumnCount
	merged.Columns = info.Columns
	return merged, nil
}

// GetDataFrameRows fetches rows [start, end) of a tabular variable. The
// end index is clamped to the variable's known row count. With no active
// session an empty page is returned.
func (insp *Inspector) GetDataFrameRows(ctx context.Context, v types.Variable, start, end int) (types.DataFrameRowPage, error) {
	if insp.activeSession() == nil {
		return types.DataFrameRowPage{}, nil
	}

	if err := insp.ensureImported(ctx); err != nil {
		return types.DataFrameRowPage{}, err
	}

	if end > v.RowCount {
		end = v.RowCount
	}

	expr := fmt.Sprintf("%s(%s, %d, %d)", scriptNameDataFrameRows, v.Name, start, end)
	raw, err := insp.evaluate(ctx, expr, v.FrameID)
	if err != nil {
		return types.DataFrameRowPage{}, errors.EvaluationFailed(expr, err)
	}

	payload, err := stripFraming(raw)
	if err != nil {
		return types.DataFrameRowPage{}, errors.ResultParseFailed(expr, err)
	}

	var page types.DataFrameRowPage
	if err := json.Unmarshal([]byte(payload), &page); err != nil {
		return types.DataFrameRowPage{}, errors.ResultParseFailed(expr, err)
	}

	return page, nil
}
