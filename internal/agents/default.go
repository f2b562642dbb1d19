package agents

import (
	"log/slog"

	"github.com/leadflow-dev/leadflow/internal/llm"
)

// DefaultRegistry wires up the full lead-generation agent set. Agent
// names match the handler names workflow definitions use.
func DefaultRegistry(client llm.Client, logger *slog.Logger) *Registry {
	reg := NewRegistry(logger)

	register := func(name string, factory Factory) {
		// Names are unique constants here; a conflict is a programming error.
		if err := reg.Register(name, factory); err != nil {
			panic(err)
		}
	}

	register("ProspectSearchAgent", func() Agent { return NewProspectSearchAgent(client, logger) })
	register("DataEnrichmentAgent", func() Agent { return NewDataEnrichmentAgent(client, logger) })
	register("ScoringAgent", func() Agent { return NewScoringAgent(client, logger) })
	register("OutreachContentAgent", func() Agent { return NewOutreachContentAgent(client, logger) })
	register("OutreachExecutorAgent", func() Agent { return NewOutreachExecutorAgent(client, logger) })
	register("ResponseTrackerAgent", func() Agent { return NewResponseTrackerAgent(client, logger) })
	register("FeedbackTrainerAgent", func() Agent { return NewFeedbackTrainerAgent(client, logger) })

	return reg
}
