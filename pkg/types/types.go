// Package types defines shared data types used across the varscope server.
//
// This package provides type definitions for:
//   - Variable: a cached snapshot entry for one debuggee variable
//   - VariablesPageRequest / VariablesPageResponse: the paged listing API
//   - VariableDetail: the payload schema of the variable-info helper
//   - DataFrameInfo / DataFrameRowPage: payload schemas of the dataframe helpers
//   - SessionStatus / SessionInfo: inspection session lifecycle
//
// These types are used throughout the codebase to maintain type safety
// and provide clear contracts between components.
package types

// SessionStatus represents the status of an inspection session
type SessionStatus string

const (
	SessionStatusConnecting SessionStatus = "connecting"
	SessionStatusAttached   SessionStatus = "attached"
	SessionStatusTerminated SessionStatus = "terminated"
)

// SessionInfo represents information about an inspection session
type SessionInfo struct {
	SessionID string        `json:"sessionId"`
	Address   string        `json:"address"`
	Status    SessionStatus `json:"status"`
}

// Variable is one cached snapshot entry. A freshly filtered entry carries
// only the shallow fields (Name, Type, Value) with Truncated=true; the
// remaining fields are filled in by on-demand expansion.
type Variable struct {
	Name                 string       `json:"name"`
	Type                 string       `json:"type"`
	Value                string       `json:"value"`
	Count                int          `json:"count"`
	Shape                string       `json:"shape"`
	Size                 int          `json:"size"`
	RowCount             int          `json:"rowCount,omitempty"`
	ColumnCount          int          `json:"columnCount,omitempty"`
	Columns              []ColumnInfo `json:"columns,omitempty"`
	SupportsDataExplorer bool         `json:"supportsDataExplorer"`
	Truncated            bool         `json:"truncated"`
	FrameID              int          `json:"frameId"`
}

// ColumnInfo describes one column of a tabular variable
type ColumnInfo struct {
	Key  string `json:"key"`
	Type string `json:"type,omitempty"`
}

// VariableDetail is the parsed payload of the variable-info helper.
// The schema is explicit so a misbehaving helper cannot smuggle
// arbitrary keys into a cached entry.
type VariableDetail struct {
	Count int    `json:"count"`
	Shape string `json:"shape"`
	Size  int    `json:"size"`
	Type  string `json:"type,omitempty"`
}

// DataFrameInfo is the parsed payload of the dataframe-info helper
type DataFrameInfo struct {
	RowCount    int          `json:"rowCount"`
	ColumnCount int          `json:"columnCount"`
	Columns     []ColumnInfo `json:"columns,omitempty"`
}

// DataFrameRowPage is the parsed payload of the dataframe-rows helper
type DataFrameRowPage struct {
	Rows []map[string]interface{} `json:"rows"`
}

// VariablesPageRequest asks for one page of the cached snapshot
type VariablesPageRequest struct {
	ExecutionCount int `json:"executionCount"`
	StartIndex     int `json:"startIndex,omitempty"`
	PageSize       int `json:"pageSize,omitempty"`
}

// VariablesPageResponse is one page of the cached snapshot
type VariablesPageResponse struct {
	ExecutionCount int        `json:"executionCount"`
	PageStartIndex int        `json:"pageStartIndex"`
	PageResponse   []Variable `json:"pageResponse"`
	TotalCount     int        `json:"totalCount"`
}
