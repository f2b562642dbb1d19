package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/leadflow-dev/leadflow/internal/agents"
	"github.com/leadflow-dev/leadflow/internal/engine"
	"github.com/leadflow-dev/leadflow/internal/llm"
	"github.com/leadflow-dev/leadflow/internal/report"
	"github.com/leadflow-dev/leadflow/internal/store"
	"github.com/leadflow-dev/leadflow/internal/validation"
	"github.com/leadflow-dev/leadflow/pkg/schema"
)

// App wires the loader, agent registry, store, and reporting together.
type App struct {
	cfg       Config
	logger    *slog.Logger
	loader    *validation.Loader
	registry  *agents.Registry
	store     store.Store
	extractor *report.Extractor
}

// newApp builds the application from config. The store is optional so the
// MCP and run modes can operate without a database when persistence fails.
func newApp(cfg Config, logger *slog.Logger) (*App, error) {
	loader, err := validation.NewLoader()
	if err != nil {
		return nil, fmt.Errorf("init loader: %w", err)
	}

	client := llm.NewGuardedClient(
		llm.NewGeminiClient(os.Getenv("GEMINI_API_KEY"), cfg.Model),
		logger,
	)

	return &App{
		cfg:       cfg,
		logger:    logger,
		loader:    loader,
		registry:  agents.DefaultRegistry(client, logger),
		extractor: report.NewExtractor(),
	}, nil
}

// openStore opens (and migrates) the libSQL store at the configured path.
func (a *App) openStore(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(a.cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	s, err := store.NewLibSQLStore("file:" + a.cfg.DBPath)
	if err != nil {
		return err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	a.store = s
	return nil
}

func (a *App) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// RunWorkflow loads a workflow definition, executes it, persists the run,
// and writes the results and summary files.
func (a *App) RunWorkflow(ctx context.Context, workflowPath string) (*schema.RunResult, error) {
	def, err := a.loader.LoadDefinition(workflowPath)
	if err != nil {
		return nil, err
	}

	a.logger.Info("starting workflow",
		slog.String("workflow", def.WorkflowName),
		slog.Int("steps", len(def.Steps)),
	)

	eng := engine.New(def, a.registry, nil, a.logger)
	result, err := eng.Execute(ctx)
	if err != nil {
		return nil, err
	}

	if a.store != nil {
		if saveErr := a.saveRun(ctx, result); saveErr != nil {
			a.logger.Warn("failed to persist run", slog.String("error", saveErr.Error()))
		}
	}

	if path, writeErr := report.WriteResults(a.cfg.ResultsDir, result); writeErr != nil {
		a.logger.Warn("failed to write results", slog.String("error", writeErr.Error()))
	} else {
		a.logger.Info("results written", slog.String("path", path))
	}

	summary, sumErr := a.extractor.Summarize(ctx, result)
	if sumErr != nil {
		a.logger.Warn("failed to summarize run", slog.String("error", sumErr.Error()))
		return result, nil
	}
	if _, writeErr := report.WriteSummary(a.cfg.ResultsDir, summary); writeErr != nil {
		a.logger.Warn("failed to write summary", slog.String("error", writeErr.Error()))
	}
	fmt.Print(report.FormatSummary(summary))

	return result, nil
}

func (a *App) saveRun(ctx context.Context, result *schema.RunResult) error {
	data, err := json.Marshal(result.Data)
	if err != nil {
		return fmt.Errorf("marshal run data: %w", err)
	}
	history, err := json.Marshal(result.History)
	if err != nil {
		return fmt.Errorf("marshal run history: %w", err)
	}

	status := store.RunStatusSucceeded
	if !result.Success {
		status = store.RunStatusFailed
	}

	run := &store.Run{
		ID:           result.RunID,
		WorkflowName: result.WorkflowName,
		Status:       status,
		Success:      result.Success,
		Data:         data,
		Errors:       result.Errors,
		History:      history,
	}
	if started, err := time.Parse(time.RFC3339, result.StartedAt); err == nil {
		run.StartedAt = started
	}
	if completed, err := time.Parse(time.RFC3339, result.CompletedAt); err == nil {
		run.CompletedAt = &completed
	}

	return a.store.SaveRun(ctx, run)
}

// schedulerRunner adapts App to the scheduler's runner interface,
// which does not need the run result.
type schedulerRunner struct {
	app *App
}

func (r schedulerRunner) RunWorkflow(ctx context.Context, workflowPath string) error {
	_, err := r.app.RunWorkflow(ctx, workflowPath)
	return err
}
