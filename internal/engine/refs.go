package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leadflow-dev/leadflow/pkg/schema"
)

// ReferenceResolver resolves {{dot.path}} references in step inputs
// against accumulated run state and the workflow definition.
//
// Resolution is shallow: only top-level string values of the inputs map
// are candidates. References nested inside maps or slices pass through
// untouched. A reference that cannot be walked resolves to nil with a
// warning; it never aborts the step.
type ReferenceResolver struct {
	logger *slog.Logger
}

// NewReferenceResolver creates a ReferenceResolver.
func NewReferenceResolver(logger *slog.Logger) *ReferenceResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReferenceResolver{logger: logger}
}

// IsReference reports whether a value is a resolvable reference: a string
// wrapped in {{ }}.
func IsReference(v any) bool {
	s, ok := v.(string)
	return ok && strings.HasPrefix(s, "{{") && strings.HasSuffix(s, "}}") && len(s) > 4
}

// ResolveInputs returns a copy of inputs with every top-level reference
// replaced by its resolved value.
func (r *ReferenceResolver) ResolveInputs(ctx context.Context, inputs map[string]any, state *ExecutionState, def *schema.WorkflowDefinition) map[string]any {
	resolved := make(map[string]any, len(inputs))
	for key, value := range inputs {
		if IsReference(value) {
			resolved[key] = r.resolve(ctx, value.(string), state, def)
			continue
		}
		resolved[key] = value
	}
	return resolved
}

// resolve walks a single reference path. The first segment selects the
// scope: the literal "config" walks the loaded definition document with
// the remaining segments; anything else walks state data with the full
// path, so {{stepA.output.count}} reads Data["stepA"]["output"]["count"].
func (r *ReferenceResolver) resolve(ctx context.Context, ref string, state *ExecutionState, def *schema.WorkflowDefinition) any {
	path := strings.TrimSpace(ref[2 : len(ref)-2])
	if path == "" {
		r.logger.WarnContext(ctx, "empty reference path", slog.String("ref", ref))
		return nil
	}
	parts := strings.Split(path, ".")

	var (
		root  any
		walk  []string
		scope string
	)
	if parts[0] == "config" {
		root = anyMap(def.Document)
		walk = parts[1:]
		scope = "config"
	} else {
		root = anyMap(state.Data)
		walk = parts
		scope = "state"
	}

	value, err := traversePath(root, walk)
	if err != nil {
		r.logger.WarnContext(ctx, "reference did not resolve",
			slog.String("ref", ref),
			slog.String("scope", scope),
			slog.String("reason", err.Error()),
		)
		return nil
	}
	return value
}

func anyMap(m map[string]any) any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// traversePath walks nested string-keyed maps. Anything else along the
// way (arrays, scalars, missing keys) fails the walk.
func traversePath(root any, parts []string) (any, error) {
	current := root
	for _, part := range parts {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot traverse into non-object at %q", part)
		}
		next, ok := obj[part]
		if !ok {
			return nil, fmt.Errorf("key %q not found", part)
		}
		current = next
	}
	return current, nil
}
