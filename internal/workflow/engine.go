// Package workflow is the validation engine shared by the CLI and the
// MCP server. It runs suites one at a time: resolve parameters, check
// preconditions, launch the command, extract results, write artifacts
// and publish.
package workflow

import (
	"context"
	"io"

	"github.com/deixis/mxvalidate/internal/config"
	"github.com/deixis/mxvalidate/internal/hostinfo"
	"github.com/deixis/mxvalidate/internal/report"
	"github.com/deixis/mxvalidate/internal/runlog"
	"github.com/deixis/mxvalidate/internal/runner"
	"github.com/deixis/mxvalidate/internal/suite"
)

// CommandRunner executes one shell command and captures its log.
// Implemented by runner.Runner and runner.FakeRunner.
type CommandRunner interface {
	Run(ctx context.Context, command, logID string) (*runner.Result, error)
}

// Tracker publishes a finished suite to an experiment tracker.
// Implemented by mlflow.Tracker.
type Tracker interface {
	Publish(ctx context.Context, run *report.RunResult, rec *report.SuiteRecord, log *runlog.Log) error
}

// Engine holds shared dependencies for validation runs.
type Engine struct {
	Config   *config.Config
	Env      *config.Env
	Runner   CommandRunner
	Fake     CommandRunner // used for fakeable suites when fake runs are requested
	Out      io.Writer     // summaries; nil discards them
	Store    report.Store  // optional
	Tracker  Tracker       // optional
	Host     hostinfo.Info
	RepoRoot string
}

func (e *Engine) suiteOptions() suite.Options {
	return suite.Options{
		SourceDir: e.Config.SourceDir,
		Python:    e.Config.Python,
		Cores:     e.Host.Cores(),
	}
}

func (e *Engine) out() io.Writer {
	if e.Out == nil {
		return io.Discard
	}
	return e.Out
}

func (e *Engine) fakeRunner() CommandRunner {
	if e.Fake != nil {
		return e.Fake
	}
	lo, hi := e.Config.FakeSleep()
	return &runner.FakeRunner{MinSleep: lo, MaxSleep: hi}
}

// Plan resolves a suite against the engine's environment without
// running it.
func (e *Engine) Plan(name string) (*suite.Plan, error) {
	ss, err := suite.Select([]string{name})
	if err != nil {
		return nil, err
	}
	return ss[0].Resolve(e.Env, e.suiteOptions())
}
