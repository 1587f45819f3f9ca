package inspect

// Helper fragments injected into the debuggee, one batch per session.
// Each fragment is idempotent to redefine. The three JSON-producing
// helpers return a JSON *string*, so the adapter renders the evaluate
// result with exactly one quote character on each side; stripFraming
// relies on that framing.

const (
	scriptNameVariableInfo  = "__vs_variable_info"
	scriptNameDataFrameInfo = "__vs_dataframe_info"
	scriptNameDataFrameRows = "__vs_dataframe_rows"
)

// bootstrapScript makes the interpreter modules the helpers depend on
// available under private aliases that cannot collide with user bindings.
const bootstrapScript = `import sys as __vs_sys
import json as __vs_json
if '' not in __vs_sys.path:
    __vs_sys.path.insert(0, '')`

const variableInfoScript = `def __vs_variable_info(x):
    info = {'count': 0, 'shape': '', 'size': 0, 'type': type(x).__name__}
    try:
        info['count'] = len(x)
    except TypeError:
        pass
    shape = getattr(x, 'shape', None)
    if shape is not None:
        info['shape'] = str(tuple(shape))
    try:
        info['size'] = int(getattr(x, 'nbytes', __vs_sys.getsizeof(x)))
    except Exception:
        pass
    return __vs_json.dumps(info)`

const dataFrameInfoScript = `def __vs_dataframe_info(df):
    shape = getattr(df, 'shape', None)
    rows = int(shape[0]) if shape else len(df)
    cols = []
    if hasattr(df, 'columns'):
        dtypes = getattr(df, 'dtypes', None)
        for c in df.columns:
            t = str(dtypes[c]) if dtypes is not None else ''
            cols.append({'key': str(c), 'type': t})
    return __vs_json.dumps({'rowCount': rows, 'columnCount': len(cols), 'columns': cols})`

const dataFrameRowsScript = `def __vs_dataframe_rows(df, start, end):
    if hasattr(df, 'iloc'):
        chunk = df.iloc[start:end]
        rows = __vs_json.loads(chunk.to_json(orient='records'))
    else:
        rows = [{'value': repr(v)} for v in list(df)[start:end]]
    return __vs_json.dumps({'rows': rows})`
