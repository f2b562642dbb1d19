package engine

import "github.com/leadflow-dev/leadflow/pkg/schema"

// ExecutionState is the accumulating state of a single run. One state per
// run; never shared across runs.
type ExecutionState struct {
	WorkflowName string
	CurrentStep  string
	Data         map[string]any
	Errors       []string
	History      []schema.HistoryRecord
}

// NewExecutionState creates an empty state for a run of the named workflow.
func NewExecutionState(workflowName string) *ExecutionState {
	return &ExecutionState{
		WorkflowName: workflowName,
		Data:         make(map[string]any),
		Errors:       []string{},
		History:      []schema.HistoryRecord{},
	}
}
