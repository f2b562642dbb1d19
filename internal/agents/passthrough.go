package agents

import "context"

// Passthrough is the fallback agent for unknown names. It echoes the
// resolved inputs so downstream steps can still reference the data.
type Passthrough struct{}

func (p *Passthrough) Name() string { return "passthrough" }

func (p *Passthrough) Execute(_ context.Context, task Task) (any, error) {
	if task.Inputs == nil {
		return map[string]any{}, nil
	}
	return task.Inputs, nil
}
