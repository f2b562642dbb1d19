package engine

import (
	"github.com/leadflow-dev/leadflow/pkg/schema"
)

// node is one step in the execution chain.
type node struct {
	step schema.StepDefinition
	next *node
}

// Chain is the linear execution structure built from a workflow
// definition: steps linked head to tail in declared order, ending at an
// implicit completed terminal (nil next).
type Chain struct {
	entry *node
	size  int
}

// BuildChain links the definition's steps in declared order. The loader
// already validates shape; the structural invariants are re-checked here
// because the engine also accepts definitions built programmatically.
func BuildChain(def *schema.WorkflowDefinition) (*Chain, error) {
	if def == nil {
		return nil, schema.NewError(schema.ErrCodeInvalidWorkflow, "workflow definition is nil")
	}
	if len(def.Steps) == 0 {
		return nil, schema.NewError(schema.ErrCodeInvalidWorkflow, "workflow has no steps")
	}

	seen := make(map[string]struct{}, len(def.Steps))
	var entry, tail *node
	for _, step := range def.Steps {
		if step.ID == "" {
			return nil, schema.NewError(schema.ErrCodeInvalidWorkflow, "step with empty id")
		}
		if _, dup := seen[step.ID]; dup {
			return nil, schema.NewErrorf(schema.ErrCodeInvalidWorkflow, "duplicate step id %q", step.ID)
		}
		seen[step.ID] = struct{}{}

		n := &node{step: step}
		if entry == nil {
			entry = n
		} else {
			tail.next = n
		}
		tail = n
	}

	return &Chain{entry: entry, size: len(def.Steps)}, nil
}

// Len returns the number of steps in the chain.
func (c *Chain) Len() int {
	return c.size
}

// StepIDs returns the step IDs in execution order.
func (c *Chain) StepIDs() []string {
	ids := make([]string, 0, c.size)
	for n := c.entry; n != nil; n = n.next {
		ids = append(ids, n.step.ID)
	}
	return ids
}
