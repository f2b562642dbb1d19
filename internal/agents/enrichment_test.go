package agents

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeniorityFromTitle(t *testing.T) {
	cases := map[string]string{
		"VP of Sales":            "Executive",
		"Chief Revenue Officer":  "Executive",
		"Head of Revenue":        "Executive",
		"Sales Director":         "Executive",
		"Sales Manager":          "Manager",
		"Team Lead":              "Manager",
		"Account Executive":      "Individual Contributor",
		"":                       "Individual Contributor",
	}
	for title, want := range cases {
		assert.Equal(t, want, seniorityFromTitle(title), title)
	}
}

func TestDataEnrichmentAgent_Execute(t *testing.T) {
	agent := NewDataEnrichmentAgent(nil, slog.Default())

	out, err := agent.Execute(context.Background(), Task{
		Inputs: map[string]any{
			"leads": []any{
				map[string]any{"company": "Acme", "contact_name": "Ana", "email": "ana@acme.io", "title": "VP Sales"},
				map[string]any{"company": "Umbrella", "contact_name": "Bo", "email": "bo@umbrella.co", "title": "Ops Analyst"},
			},
		},
	})
	require.NoError(t, err)

	result := out.(EnrichResult)
	require.Equal(t, 2, result.Count)
	assert.Equal(t, "Executive", result.EnrichedLeads[0].Seniority)
	assert.Equal(t, "VP Sales", result.EnrichedLeads[0].Role)
	assert.Equal(t, "Individual Contributor", result.EnrichedLeads[1].Seniority)
	assert.Equal(t, []string{"Salesforce", "HubSpot", "Outreach"}, result.EnrichedLeads[0].Technologies)
	assert.Equal(t, 0.85, result.EnrichedLeads[0].Confidence)
	assert.False(t, result.EnrichedLeads[0].BuiltWithEnriched)
}

func TestDataEnrichmentAgent_NoLeads(t *testing.T) {
	agent := NewDataEnrichmentAgent(nil, slog.Default())

	out, err := agent.Execute(context.Background(), Task{Inputs: map[string]any{"leads": nil}})
	require.NoError(t, err)
	assert.Equal(t, 0, out.(EnrichResult).Count)
}
