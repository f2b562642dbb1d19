package agents

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedLLM struct {
	response string
}

func (c cannedLLM) Generate(context.Context, string, string) (string, error) {
	return c.response, nil
}

func TestOutreachContentAgent_TemplateFallback(t *testing.T) {
	agent := NewOutreachContentAgent(nil, slog.Default())

	out, err := agent.Execute(context.Background(), Task{
		Inputs: map[string]any{
			"ranked_leads": []any{
				map[string]any{"contact_name": "Ana", "email": "ana@acme.io", "company": "Acme", "grade": "A", "score": 95.0, "signal": "Recent $10M Series B", "title": "VP Sales"},
				map[string]any{"contact_name": "Bo", "email": "bo@umbrella.co", "company": "Umbrella", "grade": "C", "score": 45.0},
			},
		},
	})
	require.NoError(t, err)

	result := out.(ContentResult)
	// Only A and B grades get messages.
	require.Equal(t, 1, result.Count)
	msg := result.Messages[0]
	assert.Equal(t, "Ana", msg.Lead)
	assert.Equal(t, "Quick question about Acme's analytics", msg.Subject)
	assert.Contains(t, msg.EmailBody, "Hi Ana,")
	assert.Contains(t, msg.EmailBody, "Recent $10M Series B")
	assert.Equal(t, "A", msg.Grade)
}

func TestOutreachContentAgent_ModelGenerated(t *testing.T) {
	agent := NewOutreachContentAgent(cannedLLM{
		response: `Here you go: {"subject": "Scaling revenue at Acme", "body": "Hi Ana, short and sweet."}`,
	}, slog.Default())

	out, err := agent.Execute(context.Background(), Task{
		Inputs: map[string]any{
			"ranked_leads": []any{
				map[string]any{"contact_name": "Ana", "email": "ana@acme.io", "company": "Acme", "grade": "A"},
			},
		},
	})
	require.NoError(t, err)

	msg := out.(ContentResult).Messages[0]
	assert.Equal(t, "Scaling revenue at Acme", msg.Subject)
	assert.Equal(t, "Hi Ana, short and sweet.", msg.EmailBody)
}

func TestOutreachContentAgent_CapsAtTwenty(t *testing.T) {
	leads := make([]any, 30)
	for i := range leads {
		leads[i] = map[string]any{"contact_name": "X", "email": "x@x.com", "grade": "A"}
	}

	agent := NewOutreachContentAgent(nil, slog.Default())
	out, err := agent.Execute(context.Background(), Task{Inputs: map[string]any{"ranked_leads": leads}})
	require.NoError(t, err)
	assert.Equal(t, 20, out.(ContentResult).Count)
}

func TestOutreachExecutorAgent_Execute(t *testing.T) {
	agent := NewOutreachExecutorAgent(nil, slog.Default())
	agent.rng = rand.New(rand.NewSource(7))
	agent.now = func() time.Time { return time.Unix(1700000000, 0) }

	out, err := agent.Execute(context.Background(), Task{
		Inputs: map[string]any{
			"messages": []any{
				map[string]any{"lead": "Ana", "email": "ana@acme.io", "company": "Acme"},
				map[string]any{"lead": "Bo", "email": "bo@umbrella.co", "company": "Umbrella"},
			},
		},
	})
	require.NoError(t, err)

	result := out.(ExecuteResult)
	assert.Equal(t, "campaign_1700000000", result.CampaignID)
	assert.Equal(t, 2, result.Total)
	require.Len(t, result.SentStatus, 2)

	sent := 0
	for _, status := range result.SentStatus {
		assert.Equal(t, "campaign_1700000000", status.CampaignID)
		assert.True(t, status.Status == "sent" || status.Status == "failed")
		if status.Status == "sent" {
			sent++
			assert.Empty(t, status.Error)
		} else {
			assert.Equal(t, "Simulated failure", status.Error)
		}
	}
	assert.Equal(t, sent, result.SuccessCount)
}

func TestOutreachExecutorAgent_NoMessages(t *testing.T) {
	agent := NewOutreachExecutorAgent(nil, slog.Default())

	out, err := agent.Execute(context.Background(), Task{})
	require.NoError(t, err)

	result := out.(ExecuteResult)
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0, result.SuccessCount)
	assert.True(t, strings.HasPrefix(result.CampaignID, "campaign_"))
}
