package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leadflow-dev/leadflow/internal/agents"
	"github.com/leadflow-dev/leadflow/internal/logging"
	"github.com/leadflow-dev/leadflow/pkg/schema"
)

// Engine runs one workflow definition as a linear chain of steps.
// A step failure is recorded and the run continues; the only fatal
// errors are load-time shape problems surfaced by BuildChain.
//
// The engine is built per run. It is not safe for concurrent use and
// does not need to be: execution is strictly sequential.
type Engine struct {
	def      *schema.WorkflowDefinition
	registry *agents.Registry
	refs     *ReferenceResolver
	configs  *ConfigResolver
	logger   *slog.Logger
}

// New creates an Engine for one run of def. lookup may be nil to use the
// process environment.
func New(def *schema.WorkflowDefinition, registry *agents.Registry, lookup EnvLookup, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		def:      def,
		registry: registry,
		refs:     NewReferenceResolver(logger),
		configs:  NewConfigResolver(lookup, logger),
		logger:   logger,
	}
}

// Execute runs every step in declared order and returns the terminal
// result. Success means zero recorded step errors.
func (e *Engine) Execute(ctx context.Context) (*schema.RunResult, error) {
	chain, err := BuildChain(e.def)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	state := NewExecutionState(e.def.WorkflowName)
	started := time.Now().UTC()

	e.logger.InfoContext(ctx, "workflow run started",
		slog.String("workflow", e.def.WorkflowName),
		slog.Int("steps", chain.Len()),
	)

	for n := chain.entry; n != nil; n = n.next {
		if err := ctx.Err(); err != nil {
			recordFailure(state, n.step.ID, err)
			continue
		}
		e.runStep(ctx, n.step, state)
	}

	completed := time.Now().UTC()
	result := &schema.RunResult{
		RunID:        runID,
		WorkflowName: e.def.WorkflowName,
		Success:      len(state.Errors) == 0,
		Data:         state.Data,
		Errors:       state.Errors,
		History:      state.History,
		StartedAt:    started.Format(time.RFC3339),
		CompletedAt:  completed.Format(time.RFC3339),
	}

	e.logger.InfoContext(ctx, "workflow run completed",
		slog.Bool("success", result.Success),
		slog.Int("errors", len(result.Errors)),
		slog.Duration("elapsed", completed.Sub(started)),
	)
	return result, nil
}

// runStep applies the per-step protocol: resolve the agent, resolve
// inputs against state, substitute tool configs, invoke, then commit
// the outcome. Failures write an error entry and nothing else.
func (e *Engine) runStep(ctx context.Context, step schema.StepDefinition, state *ExecutionState) {
	ctx = logging.WithStepID(ctx, step.ID)
	ctx = logging.WithAgent(ctx, step.Agent)

	agent := e.registry.Resolve(ctx, step.Agent)
	inputs := e.refs.ResolveInputs(ctx, step.Inputs, state, e.def)

	tools, err := e.configs.ResolveTools(step.Tools)
	if err != nil {
		e.logger.ErrorContext(ctx, "tool config substitution failed", slog.String("error", err.Error()))
		recordFailure(state, step.ID, err)
		return
	}

	e.logger.InfoContext(ctx, "step started")
	result, err := agent.Execute(ctx, agents.Task{
		Inputs:       inputs,
		Instructions: step.Instructions,
		Tools:        tools,
	})
	if err != nil {
		e.logger.ErrorContext(ctx, "step failed", slog.String("error", err.Error()))
		recordFailure(state, step.ID, err)
		return
	}

	output := boxOutput(result)
	state.Data[step.ID] = map[string]any{"output": output}
	state.CurrentStep = step.ID
	state.History = append(state.History, schema.HistoryRecord{
		Step:   step.ID,
		Agent:  step.Agent,
		Inputs: inputs,
		Output: output,
	})
	e.logger.InfoContext(ctx, "step completed")
}

// recordFailure appends the canonical "<step>: <message>" error entry.
// No data entry and no history record are written for a failed step.
func recordFailure(state *ExecutionState, stepID string, err error) {
	state.Errors = append(state.Errors, fmt.Sprintf("%s: %s", stepID, messageOf(err)))
}

// messageOf strips the structured-error envelope so error entries carry
// the plain message.
func messageOf(err error) string {
	var flowErr *schema.FlowError
	if errors.As(err, &flowErr) {
		return flowErr.Message
	}
	return err.Error()
}

// boxOutput round-trips an agent's typed result through JSON so state
// holds plain maps that reference paths can walk.
func boxOutput(result any) any {
	if result == nil {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return result
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return result
	}
	return v
}
