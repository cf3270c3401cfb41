// Package mcp provides the mxvalidate MCP server, registering the
// validation tools and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"net/url"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/mxvalidate"
	"github.com/deixis/mxvalidate/internal/config"
	"github.com/deixis/mxvalidate/internal/report"
	"github.com/deixis/mxvalidate/internal/runner"
	"github.com/deixis/mxvalidate/internal/workflow"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	// mu serialises validation runs and workspace updates; suites
	// never run concurrently.
	mu     sync.Mutex
	engine *workflow.Engine
	store  report.Store
}

// NewServer creates an MCP server with all mxvalidate tools
// registered. Runs are saved to store for drill-down with mx_inspect.
func NewServer(eng *workflow.Engine, store report.Store) *mcp.Server {
	eng.Store = store
	h := &handler{engine: eng, store: store}

	opts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateWorkspaceFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "mxvalidate", Version: mxvalidate.Version}, opts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "mx_suites",
		Description: `List the validation suites, or show how one suite resolves in the current environment.

Without arguments, returns every suite with a one-line description. With suite set, returns the
script path, log and data directories, every parameter with the variable it came from, and the
exact command that mx_validate would run.`,
	}, h.suitesHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "mx_validate",
		Description: `Run validation suites one at a time and return a status table.

Each suite checks its preconditions (script, data directory, data files) before any process starts,
runs its example script, extracts accuracy and timing from the log and writes its artifacts to the
suite's log directory. Runs can take hours; set fake=true to exercise the pipeline with a canned log.
Results are stored for drill-down via mx_inspect.`,
	}, h.validateHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "mx_inspect",
		Description: `Drill into the results of an mx_validate run.

Use the run_id from the mx_validate output. Add suite for the full record of one suite (parameters,
extracted values, throughput, Jenkins line, summary and log tail), and field for a single value such
as accuracy, wallclock, status or command.`,
	}, h.inspectHandler)

	return s
}

// updateWorkspaceFromRoots queries the client for MCP roots and reloads
// the configuration from the first file root.
// This is called during session initialization, before any tool calls.
func (h *handler) updateWorkspaceFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil || len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}

	loaded, err := config.Load(u.Path)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.engine.Runner.(*runner.Runner); ok {
		r.Workspace = loaded.RepoRoot
		r.Timeout = loaded.Config.Timeout()
		r.MaxOutput = loaded.Config.MaxOutputBytes()
	}
	h.engine.Config = loaded.Config
	h.engine.Env = config.NewEnv(loaded.Config.Env)
	h.engine.RepoRoot = loaded.RepoRoot
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
