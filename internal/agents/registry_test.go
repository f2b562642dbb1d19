package agents

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow-dev/leadflow/pkg/schema"
)

type countingAgent struct {
	name string
}

func (c *countingAgent) Name() string { return c.name }

func (c *countingAgent) Execute(context.Context, Task) (any, error) {
	return map[string]any{"agent": c.name}, nil
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	reg := NewRegistry(slog.Default())
	require.NoError(t, reg.Register("a", func() Agent { return &countingAgent{name: "a"} }))

	err := reg.Register("a", func() Agent { return &countingAgent{name: "a"} })
	require.Error(t, err)

	var flowErr *schema.FlowError
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, schema.ErrCodeConflict, flowErr.Code)
}

func TestRegistry_Register_Invalid(t *testing.T) {
	reg := NewRegistry(nil)
	require.Error(t, reg.Register("", func() Agent { return &countingAgent{} }))
	require.Error(t, reg.Register("x", nil))
}

func TestRegistry_Resolve_CachesInstance(t *testing.T) {
	built := 0
	reg := NewRegistry(slog.Default())
	require.NoError(t, reg.Register("a", func() Agent {
		built++
		return &countingAgent{name: "a"}
	}))

	first := reg.Resolve(context.Background(), "a")
	second := reg.Resolve(context.Background(), "a")
	assert.Same(t, first, second)
	assert.Equal(t, 1, built)
}

func TestRegistry_Resolve_UnknownFallsBack(t *testing.T) {
	reg := NewRegistry(slog.Default())

	agent := reg.Resolve(context.Background(), "nope")
	require.NotNil(t, agent)
	assert.Equal(t, "passthrough", agent.Name())

	out, err := agent.Execute(context.Background(), Task{Inputs: map[string]any{"k": "v"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "v"}, out)
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register("b", func() Agent { return &countingAgent{name: "b"} }))
	require.NoError(t, reg.Register("a", func() Agent { return &countingAgent{name: "a"} }))

	assert.Equal(t, []string{"a", "b"}, reg.Names())
	assert.True(t, reg.Has("a"))
	assert.False(t, reg.Has("c"))
}

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry(nil, slog.Default())

	for _, name := range []string{
		"ProspectSearchAgent", "DataEnrichmentAgent", "ScoringAgent",
		"OutreachContentAgent", "OutreachExecutorAgent",
		"ResponseTrackerAgent", "FeedbackTrainerAgent",
	} {
		assert.True(t, reg.Has(name), name)
	}
}
