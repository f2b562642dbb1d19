package schema

// WorkflowDefinition is the JSON/YAML-serializable workflow format.
// Steps run strictly in declared order.
type WorkflowDefinition struct {
	WorkflowName string           `json:"workflow_name" yaml:"workflow_name"`
	Steps        []StepDefinition `json:"steps" yaml:"steps"`
	Metadata     map[string]any   `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Document holds the raw parsed definition so that {{config.*}}
	// references can walk fields the typed struct does not model.
	Document map[string]any `json:"-" yaml:"-"`
}

// StepDefinition describes a single step in a workflow.
type StepDefinition struct {
	ID           string         `json:"id" yaml:"id"`
	Agent        string         `json:"agent" yaml:"agent"`
	Inputs       map[string]any `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Instructions string         `json:"instructions,omitempty" yaml:"instructions,omitempty"`
	Tools        []ToolSpec     `json:"tools,omitempty" yaml:"tools,omitempty"`
}

// ToolSpec names an external tool a step may use, with its raw config.
// Config values may contain {{ENV_VAR}} placeholders that are substituted
// at execution time.
type ToolSpec struct {
	Name   string         `json:"name" yaml:"name"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// HistoryRecord captures one successfully executed step.
type HistoryRecord struct {
	Step   string         `json:"step"`
	Agent  string         `json:"agent"`
	Inputs map[string]any `json:"inputs"`
	Output any            `json:"output"`
}

// RunResult is the terminal outcome of a workflow run.
type RunResult struct {
	RunID        string          `json:"run_id"`
	WorkflowName string          `json:"workflow_name"`
	Success      bool            `json:"success"`
	Data         map[string]any  `json:"data"`
	Errors       []string        `json:"errors"`
	History      []HistoryRecord `json:"history"`
	StartedAt    string          `json:"started_at,omitempty"`
	CompletedAt  string          `json:"completed_at,omitempty"`
}
