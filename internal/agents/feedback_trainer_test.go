package agents

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// responsesWithRates builds 20 responses hitting the requested absolute
// counts so the derived percentage metrics are exact.
func responsesWithRates(opened, clicked, replied, meetings int) []any {
	out := make([]any, 20)
	for i := range out {
		out[i] = map[string]any{
			"contact_id": "c", "sent": true,
			"opened":         i < opened,
			"clicked":        i < clicked,
			"replied":        i < replied,
			"meeting_booked": i < meetings,
		}
	}
	return out
}

func TestFeedbackTrainerAgent_RuleRecommendations(t *testing.T) {
	agent := NewFeedbackTrainerAgent(nil, slog.Default())

	// 20% open, 5% click, 0% reply, 0% meetings: three rules fire.
	out, err := agent.Execute(context.Background(), Task{
		Inputs: map[string]any{"responses": responsesWithRates(4, 1, 0, 0)},
	})
	require.NoError(t, err)

	result := out.(FeedbackResult)
	assert.Equal(t, "rules", result.Source)
	assert.Equal(t, "awaiting_approval", result.Status)
	require.Len(t, result.Recommendations, 3)
	assert.Equal(t, "subject_line", result.Recommendations[0].Type)
	assert.Equal(t, "email_body", result.Recommendations[1].Type)
	assert.Equal(t, "targeting", result.Recommendations[2].Type)
	assert.Equal(t, "20.0%", result.Recommendations[0].CurrentPerformance)
}

func TestFeedbackTrainerAgent_ScalingRecommendation(t *testing.T) {
	agent := NewFeedbackTrainerAgent(nil, slog.Default())

	// 60% open, 40% click, 30% reply, 15% meetings: only scaling fires.
	out, err := agent.Execute(context.Background(), Task{
		Inputs: map[string]any{"responses": responsesWithRates(12, 8, 6, 3)},
	})
	require.NoError(t, err)

	result := out.(FeedbackResult)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, "scaling", result.Recommendations[0].Type)
	assert.Equal(t, "medium", result.Recommendations[0].Priority)
}

func TestFeedbackTrainerAgent_ModelRecommendations(t *testing.T) {
	agent := NewFeedbackTrainerAgent(cannedLLM{response: `Recommendations follow:
[{"type":"subject_line","priority":"high","current_performance":"18.0%","suggestion":"Lead with the funding event","expected_impact":"+12% open rate","status":"pending_approval"}]`,
	}, slog.Default())

	out, err := agent.Execute(context.Background(), Task{
		Inputs: map[string]any{"responses": responsesWithRates(4, 1, 0, 0)},
	})
	require.NoError(t, err)

	result := out.(FeedbackResult)
	assert.Equal(t, "llm", result.Source)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, "Lead with the funding event", result.Recommendations[0].Suggestion)
}

func TestFeedbackTrainerAgent_UnparsableModelOutputFallsBack(t *testing.T) {
	agent := NewFeedbackTrainerAgent(cannedLLM{response: "I suggest trying harder."}, slog.Default())

	out, err := agent.Execute(context.Background(), Task{
		Inputs: map[string]any{"responses": responsesWithRates(4, 1, 0, 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, "rules", out.(FeedbackResult).Source)
}

func TestFeedbackTrainerAgent_NoResponses(t *testing.T) {
	agent := NewFeedbackTrainerAgent(nil, slog.Default())

	out, err := agent.Execute(context.Background(), Task{})
	require.NoError(t, err)

	result := out.(FeedbackResult)
	assert.Equal(t, CampaignMetrics{}, result.Metrics)
	// Zero metrics still trip the low-rate rules.
	assert.NotEmpty(t, result.Recommendations)
}
