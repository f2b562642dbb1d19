package agents

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/leadflow-dev/leadflow/internal/llm"
)

// Response is one tracked recipient engagement record.
type Response struct {
	ContactID     string `json:"contact_id"`
	CampaignID    string `json:"campaign_id"`
	Sent          bool   `json:"sent"`
	Opened        bool   `json:"opened"`
	Clicked       bool   `json:"clicked"`
	Replied       bool   `json:"replied"`
	MeetingBooked bool   `json:"meeting_booked"`
	Sentiment     string `json:"sentiment"`
}

// CampaignMetrics aggregates engagement across a campaign.
type CampaignMetrics struct {
	TotalSent      int     `json:"total_sent"`
	OpenRate       float64 `json:"open_rate"`
	ClickRate      float64 `json:"click_rate"`
	ReplyRate      float64 `json:"reply_rate"`
	MeetingRate    float64 `json:"meeting_rate"`
	Opened         int     `json:"opened"`
	Clicked        int     `json:"clicked"`
	Replied        int     `json:"replied"`
	MeetingsBooked int     `json:"meetings_booked"`
}

// TrackResult is the response tracking step output.
type TrackResult struct {
	Responses  []Response      `json:"responses"`
	CampaignID string          `json:"campaign_id"`
	Metrics    CampaignMetrics `json:"metrics"`
	Reasoning  string          `json:"reasoning,omitempty"`
}

// ResponseTrackerAgent reports engagement for a campaign. Engagement is
// simulated with realistic funnel rates (35% open, then 15% click, then
// 25% reply, then 30% meeting); a provider webhook feed would replace
// the simulation.
type ResponseTrackerAgent struct {
	baseAgent
	rng *rand.Rand
}

// NewResponseTrackerAgent creates a ResponseTrackerAgent.
func NewResponseTrackerAgent(client llm.Client, logger *slog.Logger) *ResponseTrackerAgent {
	return &ResponseTrackerAgent{
		baseAgent: newBaseAgent("ResponseTrackerAgent", client, logger),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (a *ResponseTrackerAgent) Execute(ctx context.Context, task Task) (any, error) {
	reasoning := a.reason(ctx, task)

	campaignID := stringInput(task.Inputs, "campaign_id", "")
	a.logger.InfoContext(ctx, "tracking responses", slog.String("campaign_id", campaignID))

	responses := a.simulateResponses(campaignID)

	return TrackResult{
		Responses:  responses,
		CampaignID: campaignID,
		Metrics:    calculateMetrics(responses),
		Reasoning:  reasoning,
	}, nil
}

func (a *ResponseTrackerAgent) simulateResponses(campaignID string) []Response {
	numSent := 15 + a.rng.Intn(6)

	responses := make([]Response, 0, numSent)
	for i := 0; i < numSent; i++ {
		opened := a.rng.Float64() < 0.35
		clicked := opened && a.rng.Float64() < 0.15
		replied := clicked && a.rng.Float64() < 0.25
		meeting := replied && a.rng.Float64() < 0.30

		sentiment := "neutral"
		if replied {
			sentiment = "positive"
		}
		responses = append(responses, Response{
			ContactID:     fmt.Sprintf("contact_%d", i+1),
			CampaignID:    campaignID,
			Sent:          true,
			Opened:        opened,
			Clicked:       clicked,
			Replied:       replied,
			MeetingBooked: meeting,
			Sentiment:     sentiment,
		})
	}
	return responses
}

func calculateMetrics(responses []Response) CampaignMetrics {
	total := len(responses)
	if total == 0 {
		return CampaignMetrics{}
	}

	var opened, clicked, replied, meetings int
	for _, r := range responses {
		if r.Opened {
			opened++
		}
		if r.Clicked {
			clicked++
		}
		if r.Replied {
			replied++
		}
		if r.MeetingBooked {
			meetings++
		}
	}

	rate := func(n int) float64 { return round2(float64(n) / float64(total) * 100) }
	return CampaignMetrics{
		TotalSent:      total,
		OpenRate:       rate(opened),
		ClickRate:      rate(clicked),
		ReplyRate:      rate(replied),
		MeetingRate:    rate(meetings),
		Opened:         opened,
		Clicked:        clicked,
		Replied:        replied,
		MeetingsBooked: meetings,
	}
}
