package agents

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseTrackerAgent_Execute(t *testing.T) {
	agent := NewResponseTrackerAgent(nil, slog.Default())

	out, err := agent.Execute(context.Background(), Task{
		Inputs: map[string]any{"campaign_id": "campaign_1700000000"},
	})
	require.NoError(t, err)

	result := out.(TrackResult)
	assert.Equal(t, "campaign_1700000000", result.CampaignID)
	assert.GreaterOrEqual(t, len(result.Responses), 15)
	assert.LessOrEqual(t, len(result.Responses), 20)
	assert.Equal(t, len(result.Responses), result.Metrics.TotalSent)

	for _, r := range result.Responses {
		assert.True(t, r.Sent)
		assert.Equal(t, "campaign_1700000000", r.CampaignID)
		// The engagement funnel only narrows.
		if r.Clicked {
			assert.True(t, r.Opened)
		}
		if r.Replied {
			assert.True(t, r.Clicked)
			assert.Equal(t, "positive", r.Sentiment)
		}
		if r.MeetingBooked {
			assert.True(t, r.Replied)
		}
	}
}

func TestCalculateMetrics(t *testing.T) {
	responses := []Response{
		{Opened: true, Clicked: true, Replied: true, MeetingBooked: true},
		{Opened: true},
		{Opened: true, Clicked: true},
		{},
	}

	metrics := calculateMetrics(responses)
	assert.Equal(t, 4, metrics.TotalSent)
	assert.Equal(t, 75.0, metrics.OpenRate)
	assert.Equal(t, 50.0, metrics.ClickRate)
	assert.Equal(t, 25.0, metrics.ReplyRate)
	assert.Equal(t, 25.0, metrics.MeetingRate)
	assert.Equal(t, 3, metrics.Opened)
	assert.Equal(t, 1, metrics.MeetingsBooked)
}

func TestCalculateMetrics_Empty(t *testing.T) {
	assert.Equal(t, CampaignMetrics{}, calculateMetrics(nil))
}
