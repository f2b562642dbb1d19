package report

import (
	"context"
	"time"

	"github.com/leadflow-dev/leadflow/pkg/schema"
)

// Metric queries key on the shape of each step's output rather than step IDs,
// so renaming steps in a definition does not break reporting.
const (
	leadsFoundQuery      = `[.[] | (.output | select(has("leads")) | .count)?] | first // 0`
	enrichedLeadsQuery   = `[.[] | (.output | select(has("enriched_leads")) | .count)?] | first // 0`
	averageScoreQuery    = `[.[] | (.output.average_score)? | select(. != null)] | first // 0`
	messagesQuery        = `[.[] | (.output | select(has("messages")) | .count)?] | first // 0`
	emailsSentQuery      = `[.[] | (.output.success_count)? | select(. != null)] | first // 0`
	campaignIDQuery      = `[.[] | (.output | select(has("success_count")) | .campaign_id)?] | first // ""`
	openRateQuery        = `[.[] | (.output.metrics.open_rate)? | select(. != null)] | first // 0`
	replyRateQuery       = `[.[] | (.output.metrics.reply_rate)? | select(. != null)] | first // 0`
	recommendationsQuery = `[.[] | (.output | select(has("recommendations")) | .recommendations | length)?] | first // 0`
)

// Summary condenses a run into the headline pipeline numbers.
type Summary struct {
	RunID           string        `json:"run_id"`
	WorkflowName    string        `json:"workflow_name"`
	Success         bool          `json:"success"`
	LeadsFound      int           `json:"leads_found"`
	EnrichedLeads   int           `json:"enriched_leads"`
	AverageScore    float64       `json:"average_score"`
	MessagesCreated int           `json:"messages_created"`
	EmailsSent      int           `json:"emails_sent"`
	CampaignID      string        `json:"campaign_id,omitempty"`
	OpenRate        float64       `json:"open_rate"`
	ReplyRate       float64       `json:"reply_rate"`
	Recommendations int           `json:"recommendations"`
	Errors          []string      `json:"errors,omitempty"`
	Duration        time.Duration `json:"duration,omitempty"`
}

// Summarize extracts a Summary from a completed run.
func (e *Extractor) Summarize(ctx context.Context, result *schema.RunResult) (*Summary, error) {
	s := &Summary{
		RunID:        result.RunID,
		WorkflowName: result.WorkflowName,
		Success:      result.Success,
		Errors:       result.Errors,
		Duration:     durationOf(result),
	}

	metrics := []struct {
		query string
		apply func(any)
	}{
		{leadsFoundQuery, func(v any) { s.LeadsFound = toInt(v) }},
		{enrichedLeadsQuery, func(v any) { s.EnrichedLeads = toInt(v) }},
		{averageScoreQuery, func(v any) { s.AverageScore = toFloat(v) }},
		{messagesQuery, func(v any) { s.MessagesCreated = toInt(v) }},
		{emailsSentQuery, func(v any) { s.EmailsSent = toInt(v) }},
		{campaignIDQuery, func(v any) { s.CampaignID = toString(v) }},
		{openRateQuery, func(v any) { s.OpenRate = toFloat(v) }},
		{replyRateQuery, func(v any) { s.ReplyRate = toFloat(v) }},
		{recommendationsQuery, func(v any) { s.Recommendations = toInt(v) }},
	}
	for _, m := range metrics {
		v, err := e.Query(ctx, m.query, result.Data)
		if err != nil {
			return nil, err
		}
		m.apply(v)
	}
	return s, nil
}

func durationOf(result *schema.RunResult) time.Duration {
	started, err := time.Parse(time.RFC3339, result.StartedAt)
	if err != nil {
		return 0
	}
	completed, err := time.Parse(time.RFC3339, result.CompletedAt)
	if err != nil {
		return 0
	}
	return completed.Sub(started)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}
