package engine

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow-dev/leadflow/pkg/schema"
)

func mapLookup(env map[string]string) EnvLookup {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

func TestConfigResolver_ResolveTools_Substitutes(t *testing.T) {
	r := NewConfigResolver(mapLookup(map[string]string{"APOLLO_API_KEY": "sk-live-123"}), slog.Default())

	tools := []schema.ToolSpec{{
		Name:   "apollo",
		Config: map[string]any{"api_key": "{{APOLLO_API_KEY}}", "page_size": float64(25)},
	}}

	out, err := r.ResolveTools(tools)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "sk-live-123", out[0].Config["api_key"])
	assert.Equal(t, float64(25), out[0].Config["page_size"])

	// Original is untouched.
	assert.Equal(t, "{{APOLLO_API_KEY}}", tools[0].Config["api_key"])
}

func TestConfigResolver_ResolveTools_MissingSentinel(t *testing.T) {
	r := NewConfigResolver(mapLookup(nil), slog.Default())

	tools := []schema.ToolSpec{{
		Name:   "apollo",
		Config: map[string]any{"api_key": "{{API_KEY}}"},
	}}

	out, err := r.ResolveTools(tools)
	require.NoError(t, err)
	assert.Equal(t, "MISSING_API_KEY", out[0].Config["api_key"])
	assert.True(t, schema.IsMissingEnv(out[0].Config["api_key"].(string)))
}

func TestConfigResolver_ResolveTools_NestedPlaceholders(t *testing.T) {
	r := NewConfigResolver(mapLookup(map[string]string{"CLAY_API_KEY": "c-9"}), slog.Default())

	tools := []schema.ToolSpec{{
		Name: "clay",
		Config: map[string]any{
			"auth":    map[string]any{"key": "{{CLAY_API_KEY}}"},
			"sources": []any{"{{CLAY_API_KEY}}", "static"},
		},
	}}

	out, err := r.ResolveTools(tools)
	require.NoError(t, err)
	auth := out[0].Config["auth"].(map[string]any)
	assert.Equal(t, "c-9", auth["key"])
	sources := out[0].Config["sources"].([]any)
	assert.Equal(t, "c-9", sources[0])
	assert.Equal(t, "static", sources[1])
}

func TestConfigResolver_ResolveTools_IdempotentWithoutTokens(t *testing.T) {
	r := NewConfigResolver(mapLookup(nil), slog.Default())

	tools := []schema.ToolSpec{{
		Name: "apollo",
		Config: map[string]any{
			"endpoint": "https://api.apollo.io/v1",
			"retries":  float64(3),
			"nested":   map[string]any{"deep": []any{"a", "b"}},
		},
	}}

	once, err := r.ResolveTools(tools)
	require.NoError(t, err)
	twice, err := r.ResolveTools(once)
	require.NoError(t, err)
	assert.Equal(t, tools, once)
	assert.Equal(t, once, twice)
}

func TestConfigResolver_ResolveTools_InvalidJSONAfterSubstitution(t *testing.T) {
	// A value containing an unescaped quote corrupts the serialized form.
	r := NewConfigResolver(mapLookup(map[string]string{"BROKEN": `a"b`}), slog.Default())

	tools := []schema.ToolSpec{{
		Name:   "apollo",
		Config: map[string]any{"api_key": "{{BROKEN}}"},
	}}

	_, err := r.ResolveTools(tools)
	require.Error(t, err)

	var flowErr *schema.FlowError
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, schema.ErrCodeSubstitution, flowErr.Code)
}

func TestConfigResolver_ResolveTools_Empty(t *testing.T) {
	r := NewConfigResolver(nil, nil)

	out, err := r.ResolveTools(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestConfigResolver_LowercaseTokensUntouched(t *testing.T) {
	// Step references are not environment placeholders.
	r := NewConfigResolver(mapLookup(map[string]string{"leads": "nope"}), slog.Default())

	tools := []schema.ToolSpec{{
		Name:   "apollo",
		Config: map[string]any{"source": "{{prospect_search.output.leads}}"},
	}}

	out, err := r.ResolveTools(tools)
	require.NoError(t, err)
	assert.Equal(t, "{{prospect_search.output.leads}}", out[0].Config["source"])
}
