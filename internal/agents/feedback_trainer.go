package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/cel-go/cel"

	"github.com/leadflow-dev/leadflow/internal/llm"
)

// Recommendation is one suggested campaign improvement.
type Recommendation struct {
	Type               string `json:"type"`
	Priority           string `json:"priority"`
	CurrentPerformance string `json:"current_performance"`
	Suggestion         string `json:"suggestion"`
	ExpectedImpact     string `json:"expected_impact"`
	Status             string `json:"status"`
}

// FeedbackResult is the feedback training step output.
type FeedbackResult struct {
	Recommendations []Recommendation `json:"recommendations"`
	Metrics         CampaignMetrics  `json:"metrics"`
	Status          string           `json:"status"`
	Source          string           `json:"source"` // llm | rules
	Reasoning       string           `json:"reasoning,omitempty"`
}

// thresholdRule pairs a CEL condition over campaign metrics with the
// recommendation to emit when it holds.
type thresholdRule struct {
	condition string
	build     func(CampaignMetrics) Recommendation
}

// feedbackRules are the rule-based fallback when the model is unusable.
// Conditions are CEL expressions over a `metrics` map so operators can
// read them next to the definition they tune.
var feedbackRules = []thresholdRule{
	{
		condition: "metrics.open_rate < 25.0",
		build: func(m CampaignMetrics) Recommendation {
			return Recommendation{
				Type:               "subject_line",
				Priority:           "high",
				CurrentPerformance: fmt.Sprintf("%.1f%%", m.OpenRate),
				Suggestion:         "Test more personalized subject lines with company-specific triggers",
				ExpectedImpact:     "+10-15% open rate",
				Status:             "pending_approval",
			}
		},
	},
	{
		condition: "metrics.click_rate < 10.0",
		build: func(m CampaignMetrics) Recommendation {
			return Recommendation{
				Type:               "email_body",
				Priority:           "medium",
				CurrentPerformance: fmt.Sprintf("%.1f%%", m.ClickRate),
				Suggestion:         "Add more compelling CTA and reduce email length to 2-3 sentences",
				ExpectedImpact:     "+5-8% click rate",
				Status:             "pending_approval",
			}
		},
	},
	{
		condition: "metrics.reply_rate < 5.0",
		build: func(m CampaignMetrics) Recommendation {
			return Recommendation{
				Type:               "targeting",
				Priority:           "high",
				CurrentPerformance: fmt.Sprintf("%.1f%%", m.ReplyRate),
				Suggestion:         "Refine ICP to focus on companies with recent funding or expansion signals",
				ExpectedImpact:     "+3-5% reply rate",
				Status:             "pending_approval",
			}
		},
	},
	{
		condition: "metrics.meeting_rate > 2.0",
		build: func(m CampaignMetrics) Recommendation {
			return Recommendation{
				Type:               "scaling",
				Priority:           "medium",
				CurrentPerformance: fmt.Sprintf("%.1f%%", m.MeetingRate),
				Suggestion:         "Current approach is working well. Increase daily outreach volume by 50%",
				ExpectedImpact:     "50% more meetings",
				Status:             "pending_approval",
			}
		},
	},
}

// FeedbackTrainerAgent analyzes campaign engagement and produces
// improvement recommendations, model-generated when possible and
// CEL-rule-based otherwise.
type FeedbackTrainerAgent struct {
	baseAgent
	programs []cel.Program
}

// NewFeedbackTrainerAgent creates a FeedbackTrainerAgent with the rule
// conditions pre-compiled.
func NewFeedbackTrainerAgent(client llm.Client, logger *slog.Logger) *FeedbackTrainerAgent {
	a := &FeedbackTrainerAgent{baseAgent: newBaseAgent("FeedbackTrainerAgent", client, logger)}

	env, err := cel.NewEnv(
		cel.Variable("metrics", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		a.logger.Error("feedback rule environment failed", slog.String("error", err.Error()))
		return a
	}

	for _, rule := range feedbackRules {
		ast, iss := env.Compile(rule.condition)
		if iss != nil && iss.Err() != nil {
			a.logger.Error("feedback rule does not compile",
				slog.String("condition", rule.condition),
				slog.String("error", iss.Err().Error()),
			)
			a.programs = append(a.programs, nil)
			continue
		}
		prg, err := env.Program(ast)
		if err != nil {
			a.programs = append(a.programs, nil)
			continue
		}
		a.programs = append(a.programs, prg)
	}
	return a
}

func (a *FeedbackTrainerAgent) Execute(ctx context.Context, task Task) (any, error) {
	reasoning := a.reason(ctx, task)

	responses := decodeList[Response](task.Inputs["responses"])
	a.logger.InfoContext(ctx, "analyzing responses", slog.Int("count", len(responses)))

	metrics := calculateMetrics(responses)

	recommendations, source := a.modelRecommendations(ctx, metrics, responses)
	if recommendations == nil {
		recommendations = a.ruleRecommendations(ctx, metrics)
		source = "rules"
	}

	if toolConfig(task.Tools, "GoogleSheets") != nil {
		a.logger.InfoContext(ctx, "would write recommendations to Google Sheets",
			slog.Int("count", len(recommendations)))
	}

	return FeedbackResult{
		Recommendations: recommendations,
		Metrics:         metrics,
		Status:          "awaiting_approval",
		Source:          source,
		Reasoning:       reasoning,
	}, nil
}

// modelRecommendations asks the model for a recommendation array.
// Returns nil when the response is unusable.
func (a *FeedbackTrainerAgent) modelRecommendations(ctx context.Context, metrics CampaignMetrics, responses []Response) ([]Recommendation, string) {
	if a.llm == nil {
		return nil, ""
	}

	system := `You are a B2B outreach expert analyzing campaign metrics.
Generate actionable recommendations to improve email performance.

Consider these weighted criteria when evaluating performance:
- Open Rate (weight 0.3): Are subject lines engaging enough?
- Click Rate (weight 0.25): Are CTAs clear and compelling?
- Reply Rate (weight 0.25): Is targeting and personalization sufficient?
- Meeting Rate (weight 0.2): Is follow-up strategy effective?

Prioritize recommendations based on these weights and suggest improvements
that will maximize overall campaign effectiveness.`

	sample := responses
	if len(sample) > 10 {
		sample = sample[:10]
	}
	metricsJSON, _ := json.Marshal(metrics)
	sampleJSON, _ := json.Marshal(sample)
	prompt := fmt.Sprintf(`Here are campaign metrics: %s
Here are sample responses: %s

Return a JSON array of recommendations with:
type, priority, current_performance, suggestion, expected_impact, status`, metricsJSON, sampleJSON)

	content, err := a.llm.Generate(ctx, system, prompt)
	if err != nil {
		if !llm.IsUnavailable(err) {
			a.logger.WarnContext(ctx, "model feedback failed, falling back to rules",
				slog.String("error", err.Error()))
		}
		return nil, ""
	}

	var recommendations []Recommendation
	if err := extractJSONArray(content, &recommendations); err != nil || len(recommendations) == 0 {
		a.logger.WarnContext(ctx, "model feedback had no usable recommendations, falling back to rules")
		return nil, ""
	}
	return recommendations, "llm"
}

// ruleRecommendations evaluates every compiled CEL condition against
// the metrics and emits the matching recommendations.
func (a *FeedbackTrainerAgent) ruleRecommendations(ctx context.Context, metrics CampaignMetrics) []Recommendation {
	env := map[string]any{"metrics": map[string]any{
		"open_rate":    metrics.OpenRate,
		"click_rate":   metrics.ClickRate,
		"reply_rate":   metrics.ReplyRate,
		"meeting_rate": metrics.MeetingRate,
		"total_sent":   float64(metrics.TotalSent),
	}}

	recommendations := []Recommendation{}
	for i, rule := range feedbackRules {
		if i >= len(a.programs) || a.programs[i] == nil {
			continue
		}
		out, _, err := a.programs[i].Eval(env)
		if err != nil {
			a.logger.WarnContext(ctx, "feedback rule evaluation failed",
				slog.String("condition", rule.condition),
				slog.String("error", err.Error()),
			)
			continue
		}
		if matched, ok := out.Value().(bool); ok && matched {
			recommendations = append(recommendations, rule.build(metrics))
		}
	}
	return recommendations
}
