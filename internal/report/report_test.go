package report

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow-dev/leadflow/pkg/schema"
)

func pipelineRun() *schema.RunResult {
	return &schema.RunResult{
		RunID:        "run-1",
		WorkflowName: "lead_generation_pipeline",
		Success:      true,
		Data: map[string]any{
			"search": map[string]any{"output": map[string]any{
				"leads": []any{map[string]any{"email": "a@a.io"}}, "count": 5.0,
			}},
			"enrich": map[string]any{"output": map[string]any{
				"enriched_leads": []any{}, "count": 5.0,
			}},
			"score": map[string]any{"output": map[string]any{
				"average_score": 62.5,
			}},
			"compose": map[string]any{"output": map[string]any{
				"messages": []any{}, "count": 4.0,
			}},
			"send": map[string]any{"output": map[string]any{
				"campaign_id": "campaign_1700000000", "success_count": 4.0,
			}},
			"track": map[string]any{"output": map[string]any{
				"metrics": map[string]any{"open_rate": 35.0, "reply_rate": 8.8},
			}},
			"feedback": map[string]any{"output": map[string]any{
				"recommendations": []any{map[string]any{}, map[string]any{}, map[string]any{}},
			}},
		},
		StartedAt:   "2026-08-27T10:00:00Z",
		CompletedAt: "2026-08-27T10:00:02Z",
	}
}

func TestExtractor_Summarize(t *testing.T) {
	e := NewExtractor()

	s, err := e.Summarize(context.Background(), pipelineRun())
	require.NoError(t, err)

	assert.Equal(t, 5, s.LeadsFound)
	assert.Equal(t, 5, s.EnrichedLeads)
	assert.Equal(t, 62.5, s.AverageScore)
	assert.Equal(t, 4, s.MessagesCreated)
	assert.Equal(t, 4, s.EmailsSent)
	assert.Equal(t, "campaign_1700000000", s.CampaignID)
	assert.Equal(t, 35.0, s.OpenRate)
	assert.Equal(t, 8.8, s.ReplyRate)
	assert.Equal(t, 3, s.Recommendations)
	assert.Equal(t, "2s", s.Duration.String())
}

func TestExtractor_Summarize_PartialRun(t *testing.T) {
	e := NewExtractor()

	// A run that failed after the first step still summarizes cleanly.
	result := &schema.RunResult{
		RunID:        "run-2",
		WorkflowName: "lead_generation_pipeline",
		Success:      false,
		Data: map[string]any{
			"search": map[string]any{"output": map[string]any{
				"leads": []any{}, "count": 3.0,
			}},
		},
		Errors: []string{"enrich: upstream timeout"},
	}

	s, err := e.Summarize(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, 3, s.LeadsFound)
	assert.Equal(t, 0, s.EnrichedLeads)
	assert.Equal(t, "", s.CampaignID)
	assert.False(t, s.Success)
}

func TestExtractor_Query(t *testing.T) {
	e := NewExtractor()
	ctx := context.Background()

	v, err := e.Query(ctx, `.a.b`, map[string]any{"a": map[string]any{"b": 7.0}})
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)

	// Multiple outputs collect into a slice.
	v, err = e.Query(ctx, `.xs[]`, map[string]any{"xs": []any{1.0, 2.0}})
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0}, v)

	_, err = e.Query(ctx, ``, nil)
	var flowErr *schema.FlowError
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, schema.ErrCodeValidation, flowErr.Code)

	_, err = e.Query(ctx, `.a |`, nil)
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, schema.ErrCodeValidation, flowErr.Code)
}

func TestWriteResultsAndSummary(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	result := pipelineRun()

	path, err := WriteResults(dir, result)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run_run-1.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded schema.RunResult
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)

	e := NewExtractor()
	summary, err := e.Summarize(context.Background(), result)
	require.NoError(t, err)

	sumPath, err := WriteSummary(dir, summary)
	require.NoError(t, err)
	text, err := os.ReadFile(sumPath)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Leads found:       5")
	assert.Contains(t, string(text), "campaign_1700000000")
	assert.Contains(t, string(text), "SUCCESS")
}

func TestFormatSummary_Errors(t *testing.T) {
	text := FormatSummary(&Summary{
		RunID:        "run-3",
		WorkflowName: "wf",
		Success:      false,
		Errors:       []string{"send: smtp unavailable"},
	})
	assert.Contains(t, text, "COMPLETED WITH ERRORS")
	assert.Contains(t, text, "- send: smtp unavailable")
}

func TestFormatSummary_PlainASCII(t *testing.T) {
	text := FormatSummary(&Summary{
		RunID:        "run-4",
		WorkflowName: "lead_generation_pipeline",
		Success:      true,
	})
	assert.Contains(t, text, "lead_generation_pipeline - run run-4")
	for _, r := range text {
		assert.Less(t, int(r), 128, "summary must stay plain ASCII")
	}
}
