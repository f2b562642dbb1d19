package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/leadflow-dev/leadflow/internal/agents"
	"github.com/leadflow-dev/leadflow/internal/store"
	"github.com/leadflow-dev/leadflow/pkg/schema"
)

// Runner is the interface the MCP server uses to execute workflows.
// Satisfied by the CLI run loop (avoids import cycle).
type Runner interface {
	RunWorkflow(ctx context.Context, workflowPath string) (*schema.RunResult, error)
}

// LeadflowServerDeps holds the dependencies for creating a LeadflowServer.
type LeadflowServerDeps struct {
	Runner   Runner
	Store    store.Store
	Registry *agents.Registry
	Logger   *slog.Logger
}

// LeadflowServer wraps an MCP server with leadflow-specific tool handlers.
type LeadflowServer struct {
	runner    Runner
	store     store.Store
	registry  *agents.Registry
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewLeadflowServer creates a new LeadflowServer with all 3 tools registered.
func NewLeadflowServer(deps LeadflowServerDeps) *LeadflowServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	s := &LeadflowServer{
		runner:   deps.Runner,
		store:    deps.Store,
		registry: deps.Registry,
		logger:   logger,
	}

	mcpSrv := server.NewMCPServer(
		"leadflow",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Leadflow is an agentic lead generation pipeline. Use leadflow.run to execute a workflow definition file, leadflow.result to fetch a stored run by ID, and leadflow.agents to list the registered agents."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *LeadflowServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *LeadflowServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 3 registered MCP tools as ServerTool entries.
func (s *LeadflowServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: runTool(), Handler: s.handleRun},
		{Tool: resultTool(), Handler: s.handleResult},
		{Tool: agentsTool(), Handler: s.handleAgents},
	}
}

// --- Tool definitions ---

func runTool() mcp.Tool {
	return mcp.NewTool("leadflow.run",
		mcp.WithDescription("Execute a workflow definition file and return the run summary"),
		mcp.WithString("workflow_path", mcp.Required(), mcp.Description("Path to the workflow definition (JSON or YAML)")),
	)
}

func resultTool() mcp.Tool {
	return mcp.NewTool("leadflow.result",
		mcp.WithDescription("Fetch a stored workflow run by ID"),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("ID of the run to fetch")),
	)
}

func agentsTool() mcp.Tool {
	return mcp.NewTool("leadflow.agents",
		mcp.WithDescription("List the registered pipeline agents"),
	)
}
