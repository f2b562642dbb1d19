package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/leadflow-dev/leadflow/internal/llm"
	"github.com/leadflow-dev/leadflow/pkg/schema"
)

// Lead is one discovered prospect.
type Lead struct {
	Company     string `json:"company"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	LinkedIn    string `json:"linkedin"`
	Title       string `json:"title"`
	Signal      string `json:"signal"`
	Source      string `json:"source"`
}

// SearchResult is the prospect search step output.
type SearchResult struct {
	Leads     []Lead   `json:"leads"`
	Count     int      `json:"count"`
	Sources   []string `json:"sources"`
	Reasoning string   `json:"reasoning,omitempty"`
}

const (
	defaultApolloEndpoint = "https://api.apollo.io/v1/mixed_people/search"
	defaultClayEndpoint   = "https://api.clay.com/v1/companies/search"
)

// ProspectSearchAgent discovers B2B prospects through the Apollo and
// Clay APIs, falling back to deterministic mock leads whenever a key is
// missing or a call fails. Results are deduplicated by email.
type ProspectSearchAgent struct {
	baseAgent
	httpClient *http.Client
}

// NewProspectSearchAgent creates a ProspectSearchAgent.
func NewProspectSearchAgent(client llm.Client, logger *slog.Logger) *ProspectSearchAgent {
	return &ProspectSearchAgent{
		baseAgent:  newBaseAgent("ProspectSearchAgent", client, logger),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *ProspectSearchAgent) Execute(ctx context.Context, task Task) (any, error) {
	reasoning := a.reason(ctx, task)

	icp := mapInput(task.Inputs, "icp")
	signals := sliceInput(task.Inputs, "signals")

	var leads []Lead
	if cfg := toolConfig(task.Tools, "ApolloAPI"); cfg != nil {
		leads = append(leads, a.searchApollo(ctx, icp, signals, cfg)...)
	}
	if cfg := toolConfig(task.Tools, "ClayAPI"); cfg != nil {
		leads = append(leads, a.searchClay(ctx, icp, signals, cfg)...)
	}

	unique := dedupeByEmail(leads)
	a.logger.InfoContext(ctx, "prospect search finished", slog.Int("unique_leads", len(unique)))

	return SearchResult{
		Leads:     unique,
		Count:     len(unique),
		Sources:   []string{"Apollo", "Clay"},
		Reasoning: reasoning,
	}, nil
}

type apolloSearchResponse struct {
	People []struct {
		Name         string `json:"name"`
		Email        string `json:"email"`
		LinkedInURL  string `json:"linkedin_url"`
		Title        string `json:"title"`
		Organization struct {
			Name string `json:"name"`
		} `json:"organization"`
	} `json:"people"`
}

func (a *ProspectSearchAgent) searchApollo(ctx context.Context, icp map[string]any, signals []any, cfg map[string]any) []Lead {
	apiKey, _ := cfg["api_key"].(string)
	endpoint := stringInput(cfg, "endpoint", defaultApolloEndpoint)
	if apiKey == "" || schema.IsMissingEnv(apiKey) {
		a.logger.WarnContext(ctx, "Apollo API key not configured, returning mock data")
		return mockLeads("Apollo", icp, 5)
	}

	employees := mapInput(icp, "employee_count")
	body, _ := json.Marshal(map[string]any{
		"person_titles": []string{"VP Sales", "Head of Sales", "Chief Revenue Officer", "Sales Director"},
		"organization_num_employees_ranges": []string{fmt.Sprintf("%d,%d",
			intInput(employees, "min", 100), intInput(employees, "max", 1000))},
		"organization_locations": []string{stringInput(icp, "location", "USA")},
		"per_page":               25,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		a.logger.WarnContext(ctx, "Apollo request build failed", slog.String("error", err.Error()))
		return mockLeads("Apollo", icp, 5)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("X-Api-Key", apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.WarnContext(ctx, "Apollo call failed, returning mock data", slog.String("error", err.Error()))
		return mockLeads("Apollo", icp, 5)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.WarnContext(ctx, "Apollo returned non-200 status", slog.Int("status", resp.StatusCode))
		return mockLeads("Apollo", icp, 5)
	}

	var parsed apolloSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		a.logger.WarnContext(ctx, "Apollo response decode failed", slog.String("error", err.Error()))
		return mockLeads("Apollo", icp, 5)
	}

	leads := make([]Lead, 0, len(parsed.People))
	for _, person := range parsed.People {
		leads = append(leads, Lead{
			Company:     person.Organization.Name,
			ContactName: person.Name,
			Email:       person.Email,
			LinkedIn:    person.LinkedInURL,
			Title:       person.Title,
			Signal:      firstSignal(signals),
			Source:      "Apollo",
		})
	}
	return leads
}

type claySearchResponse struct {
	Results []struct {
		Name           string `json:"name"`
		LinkedInURL    string `json:"linkedin_url"`
		PrimaryContact struct {
			Name  string `json:"name"`
			Email string `json:"email"`
			Title string `json:"title"`
		} `json:"primary_contact"`
	} `json:"results"`
}

func (a *ProspectSearchAgent) searchClay(ctx context.Context, icp map[string]any, signals []any, cfg map[string]any) []Lead {
	apiKey, _ := cfg["api_key"].(string)
	endpoint := stringInput(cfg, "endpoint", defaultClayEndpoint)
	if apiKey == "" || schema.IsMissingEnv(apiKey) {
		a.logger.WarnContext(ctx, "Clay API key not configured, returning mock data")
		return mockLeads("Clay", icp, 5)
	}

	revenue := mapInput(icp, "revenue")
	body, _ := json.Marshal(map[string]any{
		"filters": map[string]any{
			"industry":    stringInput(icp, "industry", "SaaS"),
			"location":    stringInput(icp, "location", "USA"),
			"revenue_min": intInput(revenue, "min", 20_000_000),
			"revenue_max": intInput(revenue, "max", 200_000_000),
		},
		"limit": 35,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		a.logger.WarnContext(ctx, "Clay request build failed", slog.String("error", err.Error()))
		return mockLeads("Clay", icp, 5)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.WarnContext(ctx, "Clay call failed, returning mock data", slog.String("error", err.Error()))
		return mockLeads("Clay", icp, 5)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.WarnContext(ctx, "Clay returned non-200 status", slog.Int("status", resp.StatusCode))
		io.Copy(io.Discard, resp.Body)
		return mockLeads("Clay", icp, 5)
	}

	var parsed claySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		a.logger.WarnContext(ctx, "Clay response decode failed", slog.String("error", err.Error()))
		return mockLeads("Clay", icp, 5)
	}

	leads := make([]Lead, 0, len(parsed.Results))
	for _, company := range parsed.Results {
		contactName := company.PrimaryContact.Name
		if contactName == "" {
			contactName = "Unknown"
		}
		leads = append(leads, Lead{
			Company:     company.Name,
			ContactName: contactName,
			Email:       company.PrimaryContact.Email,
			LinkedIn:    company.LinkedInURL,
			Title:       company.PrimaryContact.Title,
			Signal:      firstSignal(signals),
			Source:      "Clay",
		})
	}
	return leads
}

var (
	mockCompanies = []string{
		"TechCorp Solutions", "DataDrive Inc", "CloudScale Systems",
		"Innovation Labs", "Digital Ventures", "SmartOps Co",
		"FutureStack Inc", "AgileWorks", "NexGen Software", "Quantum Analytics",
	}
	mockTitles = []string{
		"VP of Sales", "Head of Revenue", "Chief Revenue Officer",
		"Sales Director", "VP Marketing",
	}
	signalDescriptions = map[string]string{
		"recent_funding":    "Recent $10M Series B",
		"hiring_for_sales":  "Hiring 5+ sales roles",
		"tech_stack_change": "Migrating to new CRM",
		"expansion":         "Opening new office",
	}
)

// mockLeads generates deterministic placeholder prospects so the
// pipeline stays demonstrable without API credentials.
func mockLeads(source string, icp map[string]any, count int) []Lead {
	signal := "Active in target market"
	if signals := sliceInput(icp, "signals"); len(signals) > 0 {
		if key, ok := signals[0].(string); ok {
			if desc, found := signalDescriptions[key]; found {
				signal = desc
			}
		}
	}

	leads := make([]Lead, 0, count)
	for i := 0; i < count; i++ {
		company := mockCompanies[i%len(mockCompanies)]
		domain := strings.ReplaceAll(strings.ToLower(company), " ", "")
		leads = append(leads, Lead{
			Company:     company,
			ContactName: fmt.Sprintf("John Doe %d", i+1),
			Email:       fmt.Sprintf("john.doe%d@%s.com", i+1, domain),
			LinkedIn:    fmt.Sprintf("https://linkedin.com/in/johndoe%d", i+1),
			Title:       mockTitles[i%len(mockTitles)],
			Signal:      signal,
			Source:      source,
		})
	}
	return leads
}

// dedupeByEmail keeps the first lead seen per email; leads without an
// email are dropped.
func dedupeByEmail(leads []Lead) []Lead {
	seen := make(map[string]struct{}, len(leads))
	unique := make([]Lead, 0, len(leads))
	for _, lead := range leads {
		email := strings.ToLower(lead.Email)
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		unique = append(unique, lead)
	}
	return unique
}

func firstSignal(signals []any) string {
	if len(signals) > 0 {
		if s, ok := signals[0].(string); ok {
			return s
		}
	}
	return "general"
}
