package validation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow-dev/leadflow/pkg/schema"
)

const validDefJSON = `{
  "workflow_name": "lead_generation_pipeline",
  "steps": [
    {
      "id": "prospect_search",
      "agent": "prospect_search_agent",
      "inputs": {"target_industry": "SaaS"},
      "instructions": "Find prospects.",
      "tools": [{"name": "apollo", "config": {"api_key": "{{APOLLO_API_KEY}}"}}]
    },
    {
      "id": "scoring",
      "agent": "scoring_agent",
      "inputs": {"leads": "{{prospect_search.output.leads}}"}
    }
  ]
}`

func newLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := NewLoader()
	require.NoError(t, err)
	return l
}

func TestLoader_ParseDefinition_Valid(t *testing.T) {
	def, err := newLoader(t).ParseDefinition([]byte(validDefJSON))
	require.NoError(t, err)

	assert.Equal(t, "lead_generation_pipeline", def.WorkflowName)
	require.Len(t, def.Steps, 2)
	assert.Equal(t, "prospect_search", def.Steps[0].ID)
	assert.Equal(t, "apollo", def.Steps[0].Tools[0].Name)
	assert.Equal(t, "lead_generation_pipeline", def.Document["workflow_name"])
}

func TestLoader_ParseDefinition_NotJSON(t *testing.T) {
	_, err := newLoader(t).ParseDefinition([]byte(`{"workflow_name": "broken",`))
	require.Error(t, err)

	var flowErr *schema.FlowError
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, schema.ErrCodeMalformedDefinition, flowErr.Code)
}

func TestLoader_ParseDefinition_EmptySteps(t *testing.T) {
	_, err := newLoader(t).ParseDefinition([]byte(`{"workflow_name": "empty", "steps": []}`))
	require.Error(t, err)

	var flowErr *schema.FlowError
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, schema.ErrCodeInvalidWorkflow, flowErr.Code)
}

func TestLoader_ParseDefinition_MissingName(t *testing.T) {
	_, err := newLoader(t).ParseDefinition([]byte(`{"steps": [{"id": "a", "agent": "x"}]}`))
	require.Error(t, err)

	var flowErr *schema.FlowError
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, schema.ErrCodeInvalidWorkflow, flowErr.Code)
}

func TestLoader_ParseDefinition_StepWithoutAgent(t *testing.T) {
	_, err := newLoader(t).ParseDefinition([]byte(
		`{"workflow_name": "wf", "steps": [{"id": "a"}]}`))
	require.Error(t, err)

	var flowErr *schema.FlowError
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, schema.ErrCodeInvalidWorkflow, flowErr.Code)
}

func TestLoader_ParseDefinition_DuplicateStepIDs(t *testing.T) {
	_, err := newLoader(t).ParseDefinition([]byte(
		`{"workflow_name": "wf", "steps": [{"id": "a", "agent": "x"}, {"id": "a", "agent": "y"}]}`))
	require.Error(t, err)

	var flowErr *schema.FlowError
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, schema.ErrCodeInvalidWorkflow, flowErr.Code)
	assert.Contains(t, flowErr.Message, "duplicate step id")
}

func TestLoader_ParseDefinition_ExtraFieldsTolerated(t *testing.T) {
	def, err := newLoader(t).ParseDefinition([]byte(`{
	  "workflow_name": "wf",
	  "steps": [
	    {
	      "id": "a",
	      "agent": "x",
	      "retry": 3,
	      "tools": [{"name": "apollo", "config": {}, "timeout": 30}]
	    }
	  ]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "a", def.Steps[0].ID)
	assert.Equal(t, "apollo", def.Steps[0].Tools[0].Name)
}

func TestLoader_ParseDefinitionYAML(t *testing.T) {
	yamlDef := `
workflow_name: lead_generation_pipeline
steps:
  - id: prospect_search
    agent: prospect_search_agent
    inputs:
      target_industry: SaaS
`
	def, err := newLoader(t).ParseDefinitionYAML([]byte(yamlDef))
	require.NoError(t, err)
	assert.Equal(t, "lead_generation_pipeline", def.WorkflowName)
	require.Len(t, def.Steps, 1)
	assert.Equal(t, "SaaS", def.Steps[0].Inputs["target_industry"])
}

func TestLoader_ParseDefinitionYAML_Invalid(t *testing.T) {
	_, err := newLoader(t).ParseDefinitionYAML([]byte("steps: [\n"))
	require.Error(t, err)

	var flowErr *schema.FlowError
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, schema.ErrCodeMalformedDefinition, flowErr.Code)
}

func TestLoader_LoadDefinition_ByExtension(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "wf.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(validDefJSON), 0o644))

	def, err := newLoader(t).LoadDefinition(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "lead_generation_pipeline", def.WorkflowName)

	_, err = newLoader(t).LoadDefinition(filepath.Join(dir, "missing.json"))
	require.Error(t, err)

	var flowErr *schema.FlowError
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, schema.ErrCodeMalformedDefinition, flowErr.Code)
}
