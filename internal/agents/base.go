package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leadflow-dev/leadflow/internal/llm"
)

const maxReasoningHistory = 50

// ReasoningEntry is one recorded thought from the reason phase.
type ReasoningEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Thought   string    `json:"thought"`
}

// baseAgent implements the reason-then-act pattern shared by all
// concrete agents: build a prompt from the task, ask the model for a
// plan, then act. Reasoning is advisory; when the model is unavailable
// the act phase runs on rules alone.
type baseAgent struct {
	name    string
	llm     llm.Client
	logger  *slog.Logger
	history []ReasoningEntry
}

func newBaseAgent(name string, client llm.Client, logger *slog.Logger) baseAgent {
	if logger == nil {
		logger = slog.Default()
	}
	return baseAgent{name: name, llm: client, logger: logger}
}

func (b *baseAgent) Name() string { return b.name }

// ReasoningHistory returns the recorded thoughts, oldest first.
func (b *baseAgent) ReasoningHistory() []ReasoningEntry {
	return b.history
}

// reason asks the model to plan the step. Returns "" when no model is
// usable; the caller proceeds without it.
func (b *baseAgent) reason(ctx context.Context, task Task) string {
	if b.llm == nil {
		return ""
	}

	system, prompt := b.buildPrompt(task)
	thought, err := b.llm.Generate(ctx, system, prompt)
	if err != nil {
		if llm.IsUnavailable(err) {
			b.logger.DebugContext(ctx, "model unavailable, acting without reasoning")
		} else {
			b.logger.WarnContext(ctx, "reasoning failed, acting without it",
				slog.String("error", err.Error()))
		}
		return ""
	}

	b.history = append(b.history, ReasoningEntry{Timestamp: time.Now().UTC(), Thought: thought})
	if len(b.history) > maxReasoningHistory {
		b.history = b.history[len(b.history)-maxReasoningHistory:]
	}
	return thought
}

// buildPrompt renders the reason-then-act prompt pair from the task.
func (b *baseAgent) buildPrompt(task Task) (system, prompt string) {
	var tools strings.Builder
	for _, t := range task.Tools {
		desc, _ := t.Config["description"].(string)
		if desc == "" {
			desc = "No description"
		}
		fmt.Fprintf(&tools, "- %s: %s\n", t.Name, desc)
	}
	toolList := tools.String()
	if toolList == "" {
		toolList = "No tools available"
	}

	system = fmt.Sprintf(`You are an expert AI agent named %s.
Your role is to analyze the input, reason about the best approach, and execute the task.

Available Tools:
%s
Use this pattern:
1. THOUGHT: Analyze the input and plan your approach
2. ACTION: Decide which tool(s) to use and how
3. OBSERVATION: Consider what you learned
4. REPEAT if needed, or provide FINAL OUTPUT

Always structure your response as JSON with clear reasoning.`, b.name, toolList)

	inputsJSON, err := json.MarshalIndent(task.Inputs, "", "  ")
	if err != nil {
		inputsJSON = []byte("{}")
	}
	prompt = fmt.Sprintf(`Task Instructions: %s

Input Data:
%s

Please proceed with your analysis and execution.`, task.Instructions, inputsJSON)
	return system, prompt
}

// decodeList round-trips a boxed input value into a typed slice.
// Anything that does not fit the target shape decodes to the zero value,
// so partially-shaped upstream data degrades instead of failing.
func decodeList[T any](v any) []T {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// extractJSONObject parses the first {...} block in a model response.
func extractJSONObject(content string, target any) error {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in response")
	}
	return json.Unmarshal([]byte(content[start:end+1]), target)
}

// extractJSONArray parses the first [...] block in a model response.
func extractJSONArray(content string, target any) error {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON array in response")
	}
	return json.Unmarshal([]byte(content[start:end+1]), target)
}
