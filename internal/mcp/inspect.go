package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/mxvalidate/internal/report"
	"github.com/deixis/mxvalidate/internal/workflow"
)

type inspectParams struct {
	RunID string `json:"run_id" jsonschema:"the run ID from an mx_validate result (a unique prefix is enough)"`
	Suite string `json:"suite,omitempty" jsonschema:"suite name within the run; omit for the run overview"`
	Field string `json:"field,omitempty" jsonschema:"single value of the suite: an extracted result (accuracy, wallclock, command, one_line), a parameter (batch_size), or status, detail, exit_code, jenkins, summary, log_tail"`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}
	if params.Field != "" && params.Suite == "" {
		return errorResult("field requires suite")
	}

	run, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}

	switch {
	case params.Suite == "":
		return textResult(fmt.Sprintf("Run: %s\nStarted: %s\nHost: %s\n\n%s",
			run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), run.Host, workflow.FormatRun(run)))
	case params.Field == "":
		rec, err := report.BySuite(run, params.Suite)
		if err != nil {
			return errorResult(err.Error())
		}
		return textResult(workflow.FormatSuite(run.ID, rec))
	}

	v, err := report.Field(run, params.Suite, params.Field)
	if err != nil {
		return errorResult(err.Error())
	}
	return textResult(v)
}
