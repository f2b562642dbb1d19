package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leadflow-dev/leadflow/internal/llm"
)

const maxOutreachMessages = 20

// Message is one personalized outreach email.
type Message struct {
	Lead      string  `json:"lead"`
	Email     string  `json:"email"`
	Company   string  `json:"company"`
	Subject   string  `json:"subject"`
	EmailBody string  `json:"email_body"`
	Score     float64 `json:"score"`
	Grade     string  `json:"grade"`
}

// ContentResult is the outreach content step output.
type ContentResult struct {
	Messages  []Message `json:"messages"`
	Count     int       `json:"count"`
	Reasoning string    `json:"reasoning,omitempty"`
}

// OutreachContentAgent writes personalized outreach emails for A and B
// grade leads, model-generated when possible and template-based
// otherwise.
type OutreachContentAgent struct {
	baseAgent
}

// NewOutreachContentAgent creates an OutreachContentAgent.
func NewOutreachContentAgent(client llm.Client, logger *slog.Logger) *OutreachContentAgent {
	return &OutreachContentAgent{baseAgent: newBaseAgent("OutreachContentAgent", client, logger)}
}

func (a *OutreachContentAgent) Execute(ctx context.Context, task Task) (any, error) {
	reasoning := a.reason(ctx, task)

	ranked := decodeList[ScoredLead](task.Inputs["ranked_leads"])
	persona := stringInput(task.Inputs, "persona", "SDR")
	tone := stringInput(task.Inputs, "tone", "friendly")

	var top []ScoredLead
	for _, lead := range ranked {
		if lead.Grade == "A" || lead.Grade == "B" {
			top = append(top, lead)
		}
	}
	if len(top) > maxOutreachMessages {
		top = top[:maxOutreachMessages]
	}

	a.logger.InfoContext(ctx, "generating outreach content", slog.Int("top_leads", len(top)))

	messages := make([]Message, 0, len(top))
	for _, lead := range top {
		subject, body := a.composeMessage(ctx, lead, persona, tone)
		messages = append(messages, Message{
			Lead:      lead.ContactName,
			Email:     lead.Email,
			Company:   lead.Company,
			Subject:   subject,
			EmailBody: body,
			Score:     lead.Score,
			Grade:     lead.Grade,
		})
	}

	return ContentResult{
		Messages:  messages,
		Count:     len(messages),
		Reasoning: reasoning,
	}, nil
}

// composeMessage asks the model for a subject/body pair and falls back
// to the template on any failure.
func (a *OutreachContentAgent) composeMessage(ctx context.Context, lead ScoredLead, persona, tone string) (subject, body string) {
	if a.llm != nil {
		system := fmt.Sprintf(`You are an expert %s writing personalized outreach emails.
Write in a %s tone. Keep emails concise (3-4 sentences max).
Focus on the prospect's pain points and how we can help.`, persona, tone)

		prompt := fmt.Sprintf(`Write a personalized email for:
Contact: %s
Title: %s
Company: %s
Signal: %s
Technologies: %s

Our company: LeadFlow - AI-powered analytics for B2B revenue teams.
Goal: Book a 15-minute discovery call.

Return JSON with 'subject' and 'body' fields.`,
			orDefault(lead.ContactName, "there"),
			orDefault(lead.Title, "sales leader"),
			orDefault(lead.Company, "your company"),
			orDefault(lead.Signal, "interest in analytics"),
			strings.Join(lead.Technologies, ", "),
		)

		if content, err := a.llm.Generate(ctx, system, prompt); err == nil {
			var parsed struct {
				Subject string `json:"subject"`
				Body    string `json:"body"`
			}
			if err := extractJSONObject(content, &parsed); err == nil && parsed.Subject != "" && parsed.Body != "" {
				return parsed.Subject, parsed.Body
			}
			a.logger.WarnContext(ctx, "model response had no usable subject/body, using template")
		} else if !llm.IsUnavailable(err) {
			a.logger.WarnContext(ctx, "message generation failed, using template",
				slog.String("error", err.Error()))
		}
	}

	return templateMessage(lead)
}

// templateMessage is the deterministic fallback email.
func templateMessage(lead ScoredLead) (subject, body string) {
	company := orDefault(lead.Company, "your company")
	subject = fmt.Sprintf("Quick question about %s's analytics", company)
	body = fmt.Sprintf(`Hi %s,

I noticed %s is %s. Many %s we work with struggle to get actionable insights from their data.

LeadFlow helps B2B teams like yours turn raw data into revenue-driving decisions. Would you be open to a quick 15-min call to explore if we can help?

Best regards`,
		orDefault(lead.ContactName, "there"),
		company,
		orDefault(lead.Signal, "growing fast"),
		orDefault(lead.Title, "sales leaders"),
	)
	return subject, body
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
