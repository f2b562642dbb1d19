package agents

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/leadflow-dev/leadflow/internal/llm"
)

const simulatedDeliveryRate = 0.95

// SendStatus records the delivery outcome for one message.
type SendStatus struct {
	Email       string `json:"email"`
	ContactName string `json:"contact_name"`
	Company     string `json:"company"`
	Status      string `json:"status"` // sent | failed
	CampaignID  string `json:"campaign_id"`
	SentAt      string `json:"sent_at"`
	Error       string `json:"error,omitempty"`
}

// ExecuteResult is the outreach execution step output.
type ExecuteResult struct {
	SentStatus   []SendStatus `json:"sent_status"`
	CampaignID   string       `json:"campaign_id"`
	SuccessCount int          `json:"success_count"`
	Total        int          `json:"total"`
	Reasoning    string       `json:"reasoning,omitempty"`
}

// OutreachExecutorAgent runs the outreach campaign. Delivery is
// simulated at a 95% success rate; a real provider integration would
// replace sendMessage.
type OutreachExecutorAgent struct {
	baseAgent
	rng *rand.Rand
	now func() time.Time
}

// NewOutreachExecutorAgent creates an OutreachExecutorAgent.
func NewOutreachExecutorAgent(client llm.Client, logger *slog.Logger) *OutreachExecutorAgent {
	return &OutreachExecutorAgent{
		baseAgent: newBaseAgent("OutreachExecutorAgent", client, logger),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
}

func (a *OutreachExecutorAgent) Execute(ctx context.Context, task Task) (any, error) {
	reasoning := a.reason(ctx, task)

	messages := decodeList[Message](task.Inputs["messages"])
	campaignID := fmt.Sprintf("campaign_%d", a.now().Unix())

	a.logger.InfoContext(ctx, "executing outreach",
		slog.Int("messages", len(messages)),
		slog.String("campaign_id", campaignID),
	)

	statuses := make([]SendStatus, 0, len(messages))
	success := 0
	for _, message := range messages {
		status := a.sendMessage(ctx, message, campaignID)
		if status.Status == "sent" {
			success++
		}
		statuses = append(statuses, status)
	}

	a.logger.InfoContext(ctx, "outreach finished",
		slog.Int("sent", success),
		slog.Int("total", len(messages)),
	)

	return ExecuteResult{
		SentStatus:   statuses,
		CampaignID:   campaignID,
		SuccessCount: success,
		Total:        len(messages),
		Reasoning:    reasoning,
	}, nil
}

func (a *OutreachExecutorAgent) sendMessage(ctx context.Context, message Message, campaignID string) SendStatus {
	a.logger.DebugContext(ctx, "sending email", slog.String("to", message.Email))

	status := SendStatus{
		Email:       message.Email,
		ContactName: message.Lead,
		Company:     message.Company,
		CampaignID:  campaignID,
		SentAt:      a.now().UTC().Format("2006-01-02 15:04:05"),
	}
	if a.rng.Float64() < simulatedDeliveryRate {
		status.Status = "sent"
	} else {
		status.Status = "failed"
		status.Error = "Simulated failure"
	}
	return status
}
