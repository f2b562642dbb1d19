package agents

import (
	"context"

	"github.com/leadflow-dev/leadflow/pkg/schema"
)

// Task is the fully-resolved work handed to an agent for one step:
// inputs with references resolved, the step's natural-language
// instructions, and tool configs with environment placeholders
// substituted.
type Task struct {
	Inputs       map[string]any
	Instructions string
	Tools        []schema.ToolSpec
}

// Agent executes one workflow step. Implementations must tolerate
// missing or nil optional inputs: absent data degrades the result, it
// does not raise. A returned error is recorded as a step failure and
// the run continues.
type Agent interface {
	Name() string
	Execute(ctx context.Context, task Task) (any, error)
}

// toolConfig returns the config map of the named tool, or nil.
func toolConfig(tools []schema.ToolSpec, name string) map[string]any {
	for _, t := range tools {
		if t.Name == name {
			return t.Config
		}
	}
	return nil
}

// stringConfig returns a string config value of the named tool, or "".
func stringConfig(tools []schema.ToolSpec, tool, key string) string {
	cfg := toolConfig(tools, tool)
	if cfg == nil {
		return ""
	}
	s, _ := cfg[key].(string)
	return s
}

// stringInput returns a string input value, or the fallback.
func stringInput(inputs map[string]any, key, fallback string) string {
	if s, ok := inputs[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// intInput returns an integer input value, accepting JSON numbers, or
// the fallback.
func intInput(inputs map[string]any, key string, fallback int) int {
	switch v := inputs[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// sliceInput returns a list input value, or nil.
func sliceInput(inputs map[string]any, key string) []any {
	v, _ := inputs[key].([]any)
	return v
}

// mapInput returns a map input value, or nil.
func mapInput(inputs map[string]any, key string) map[string]any {
	v, _ := inputs[key].(map[string]any)
	return v
}
