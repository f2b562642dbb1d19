package agents

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/leadflow-dev/leadflow/internal/llm"
)

// ScoredLead is an enriched lead with its score and letter grade.
type ScoredLead struct {
	EnrichedLead
	Score float64 `json:"score"`
	Grade string  `json:"grade"`
}

// ScoreResult is the scoring step output.
type ScoreResult struct {
	RankedLeads  []ScoredLead `json:"ranked_leads"`
	TopLeads     []ScoredLead `json:"top_leads"`
	AverageScore float64      `json:"average_score"`
	Reasoning    string       `json:"reasoning,omitempty"`
}

// ScoringAgent scores leads against weighted ICP criteria and ranks
// them. The default scoring is weighted seniority, company size, tech
// overlap and buying signal. A criteria entry "formula" replaces the
// weighted sum with a custom expression evaluated over the component
// scores.
type ScoringAgent struct {
	baseAgent
	formulaCache map[string]*vm.Program
}

// NewScoringAgent creates a ScoringAgent.
func NewScoringAgent(client llm.Client, logger *slog.Logger) *ScoringAgent {
	return &ScoringAgent{
		baseAgent:    newBaseAgent("ScoringAgent", client, logger),
		formulaCache: make(map[string]*vm.Program),
	}
}

func (a *ScoringAgent) Execute(ctx context.Context, task Task) (any, error) {
	reasoning := a.reason(ctx, task)

	leads := decodeList[EnrichedLead](task.Inputs["enriched_leads"])
	criteria := mapInput(task.Inputs, "scoring_criteria")
	if criteria == nil {
		criteria = defaultScoringCriteria()
	}

	a.logger.InfoContext(ctx, "scoring leads", slog.Int("count", len(leads)))

	scored := make([]ScoredLead, 0, len(leads))
	var total float64
	for _, lead := range leads {
		score := a.calculateScore(ctx, lead, criteria)
		total += score
		scored = append(scored, ScoredLead{
			EnrichedLead: lead,
			Score:        score,
			Grade:        assignGrade(score),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	top := scored
	if len(top) > 10 {
		top = top[:10]
	}

	average := 0.0
	if len(scored) > 0 {
		average = round2(total / float64(len(scored)))
	}

	return ScoreResult{
		RankedLeads:  scored,
		TopLeads:     top,
		AverageScore: average,
		Reasoning:    reasoning,
	}, nil
}

func defaultScoringCriteria() map[string]any {
	return map[string]any{
		"seniority_weight":         0.3,
		"company_size_weight":      0.2,
		"tech_stack_weight":        0.2,
		"signal_weight":            0.3,
		"preferred_seniority":      []any{"Executive", "Manager"},
		"preferred_company_sizes":  []any{"100-500", "500-1000"},
		"preferred_technologies":   []any{"Salesforce", "HubSpot"},
	}
}

// calculateScore computes the component scores and combines them: the
// default is a straight sum, a "formula" expression overrides it.
func (a *ScoringAgent) calculateScore(ctx context.Context, lead EnrichedLead, criteria map[string]any) float64 {
	var seniorityScore, sizeScore, techScore, signalScore float64

	if containsString(sliceInput(criteria, "preferred_seniority"), lead.Seniority) {
		seniorityScore = floatValue(criteria, "seniority_weight", 0.3) * 100
	}
	if containsString(sliceInput(criteria, "preferred_company_sizes"), lead.CompanySize) {
		sizeScore = floatValue(criteria, "company_size_weight", 0.2) * 100
	}

	preferredTech := sliceInput(criteria, "preferred_technologies")
	if len(preferredTech) > 0 {
		overlap := 0
		for _, tech := range lead.Technologies {
			if containsString(preferredTech, tech) {
				overlap++
			}
		}
		if overlap > 0 {
			techScore = floatValue(criteria, "tech_stack_weight", 0.2) * 100 *
				(float64(overlap) / float64(len(preferredTech)))
		}
	}

	if lead.Signal != "" {
		signalScore = floatValue(criteria, "signal_weight", 0.3) * 100
	}

	if formula, ok := criteria["formula"].(string); ok && formula != "" {
		if score, ok := a.evalFormula(ctx, formula, map[string]any{
			"seniority_score": seniorityScore,
			"size_score":      sizeScore,
			"tech_score":      techScore,
			"signal_score":    signalScore,
			"lead":            lead,
		}); ok {
			return round2(score)
		}
	}

	return round2(seniorityScore + sizeScore + techScore + signalScore)
}

// evalFormula compiles (once per formula) and runs a custom scoring
// expression. A broken formula logs and falls back to the weighted sum.
func (a *ScoringAgent) evalFormula(ctx context.Context, formula string, env map[string]any) (float64, bool) {
	prg, ok := a.formulaCache[formula]
	if !ok {
		compiled, err := expr.Compile(formula, expr.Env(env), expr.AllowUndefinedVariables())
		if err != nil {
			a.logger.WarnContext(ctx, "scoring formula does not compile, using weighted sum",
				slog.String("formula", formula),
				slog.String("error", err.Error()),
			)
			return 0, false
		}
		a.formulaCache[formula] = compiled
		prg = compiled
	}

	out, err := vm.Run(prg, env)
	if err != nil {
		a.logger.WarnContext(ctx, "scoring formula evaluation failed, using weighted sum",
			slog.String("formula", formula),
			slog.String("error", err.Error()),
		)
		return 0, false
	}

	switch v := out.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		a.logger.WarnContext(ctx, "scoring formula returned non-numeric value",
			slog.String("formula", formula))
		return 0, false
	}
}

func assignGrade(score float64) string {
	switch {
	case score >= 80:
		return "A"
	case score >= 60:
		return "B"
	case score >= 40:
		return "C"
	default:
		return "D"
	}
}

func containsString(list []any, target string) bool {
	for _, v := range list {
		if s, ok := v.(string); ok && s == target {
			return true
		}
	}
	return false
}

func floatValue(m map[string]any, key string, fallback float64) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
