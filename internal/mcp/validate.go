package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/mxvalidate/internal/report"
	"github.com/deixis/mxvalidate/internal/suite"
	"github.com/deixis/mxvalidate/internal/workflow"
)

type suitesParams struct {
	Suite string `json:"suite,omitempty" jsonschema:"suite name (e.g. mnist-mlp) to resolve against the current environment; omit to list every suite"`
}

func (h *handler) suitesHandler(ctx context.Context, req *mcp.CallToolRequest, params suitesParams) (*mcp.CallToolResult, any, error) {
	if params.Suite == "" {
		return textResult(workflow.FormatSuites(suite.All()))
	}

	h.mu.Lock()
	plan, err := h.engine.Plan(params.Suite)
	h.mu.Unlock()
	if err != nil {
		return errorResult(err.Error())
	}
	return textResult(workflow.FormatPlan(plan))
}

type validateParams struct {
	Suites   []string `json:"suites,omitempty" jsonschema:"suite names to run in order (e.g. mnist-mlp, resnet-cifar10). Defaults to the configured selection, or every suite."`
	Fake     bool     `json:"fake,omitempty" jsonschema:"sleep and return a canned log instead of running fakeable suites, as with MX_NG_DO_NOT_RUN. Default: false."`
	FailFast bool     `json:"fail_fast,omitempty" jsonschema:"skip the remaining suites after the first one that does not pass. Default: false."`
	Publish  bool     `json:"publish,omitempty" jsonschema:"publish each suite to the configured MLflow server. Default: false."`
}

func (h *handler) validateHandler(ctx context.Context, req *mcp.CallToolRequest, params validateParams) (*mcp.CallToolResult, any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := params.Suites
	if len(names) == 0 && h.engine.Config != nil {
		names = h.engine.Config.Suites
	}
	run, err := h.engine.Validate(ctx, names, workflow.Options{
		FailFast:  params.FailFast,
		ForceFake: params.Fake,
		Publish:   params.Publish,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("validate failed: %v", err))
	}
	return textResult(formatValidate(run))
}

func formatValidate(run *report.RunResult) string {
	var b strings.Builder
	if run.Passed() {
		fmt.Fprintln(&b, "Status: PASS")
	} else {
		fmt.Fprintln(&b, "Status: FAIL")
	}
	fmt.Fprintf(&b, "Run: %s\n", run.ID)
	fmt.Fprintln(&b)
	fmt.Fprint(&b, workflow.FormatRun(run))
	fmt.Fprintln(&b)

	for _, s := range run.Suites {
		if s.Jenkins != "" {
			fmt.Fprintf(&b, "%s: %s\n", s.Name, s.Jenkins)
		}
	}

	if run.Passed() {
		fmt.Fprintln(&b, "All suites passed.")
	} else {
		fmt.Fprintf(&b, "Inspect with mx_inspect(run_id=%q, suite=\"<suite>\").\n", run.ID)
	}
	return b.String()
}
