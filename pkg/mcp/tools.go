package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leadflow-dev/leadflow/internal/report"
)

// handleRun executes a workflow definition file and returns its summary
// alongside the full run result.
func (s *LeadflowServer) handleRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workflowPath, err := req.RequireString("workflow_path")
	if err != nil {
		return mcp.NewToolResultError("workflow_path is required"), nil
	}

	result, runErr := s.runner.RunWorkflow(ctx, workflowPath)
	if runErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("workflow execution failed: %v", runErr)), nil
	}

	summary, sumErr := report.NewExtractor().Summarize(ctx, result)
	if sumErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to summarize run: %v", sumErr)), nil
	}

	return marshalResult(map[string]any{
		"summary": summary,
		"result":  result,
	})
}

// handleResult fetches a stored run by ID.
func (s *LeadflowServer) handleResult(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, err := req.RequireString("run_id")
	if err != nil {
		return mcp.NewToolResultError("run_id is required"), nil
	}

	run, getErr := s.store.GetRun(ctx, runID)
	if getErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("run lookup failed: %v", getErr)), nil
	}

	return marshalResult(run)
}

// handleAgents lists the registered agents.
func (s *LeadflowServer) handleAgents(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return marshalResult(map[string]any{
		"agents": s.registry.Names(),
	})
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
