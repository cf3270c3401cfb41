package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deixis/mxvalidate/internal/extract"
	"github.com/deixis/mxvalidate/internal/report"
	"github.com/deixis/mxvalidate/internal/runlog"
	"github.com/deixis/mxvalidate/internal/runner"
	"github.com/deixis/mxvalidate/internal/suite"
)

// logTailLines is how much of each run log a SuiteRecord keeps.
const logTailLines = 20

// Options tune a validation run.
type Options struct {
	FailFast  bool // skip remaining suites after the first non-pass
	ForceFake bool // fake every fakeable suite regardless of MX_NG_DO_NOT_RUN
	Publish   bool // publish records to the Tracker
}

// Validate runs the named suites in order, one at a time. An empty list
// runs every suite. Unknown names are rejected before anything runs.
// Suite failures are recorded in the result, not returned as errors.
func (e *Engine) Validate(ctx context.Context, names []string, opts Options) (*report.RunResult, error) {
	selected, err := suite.Select(names)
	if err != nil {
		return nil, err
	}

	fake := opts.ForceFake || e.Env.FakeRun()
	run := &report.RunResult{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		Fake:      fake,
		Host:      e.Host.String(),
	}

	stop := ""
	for _, s := range selected {
		if stop == "" && ctx.Err() != nil {
			stop = "cancelled"
		}
		if stop != "" {
			run.Suites = append(run.Suites, report.SuiteRecord{Name: s.Name, Status: report.StatusSkipped, Detail: stop})
			continue
		}

		rec, runLog := e.runSuite(ctx, s, fake)
		run.Suites = append(run.Suites, rec)
		log.Printf("%s: %s", s.Name, rec.Status)

		if opts.Publish && e.Tracker != nil && rec.Status != report.StatusError {
			if err := e.Tracker.Publish(ctx, run, &run.Suites[len(run.Suites)-1], runLog); err != nil {
				log.Printf("%s: publishing failed: %v", s.Name, err)
			}
		}
		if opts.FailFast && rec.Status != report.StatusPass {
			stop = fmt.Sprintf("skipped after %s %s", s.Name, rec.Status)
		}
	}
	run.FinishedAt = time.Now()

	if e.Store != nil {
		if err := e.Store.Save(run); err != nil {
			log.Printf("saving run %s: %v", run.ID, err)
		}
	}
	return run, nil
}

// runSuite executes one suite. The returned log is nil when no command
// ran.
func (e *Engine) runSuite(ctx context.Context, s *suite.Suite, fake bool) (report.SuiteRecord, *runlog.Log) {
	rec := report.SuiteRecord{Name: s.Name}
	fail := func(st report.Status, err error) (report.SuiteRecord, *runlog.Log) {
		rec.Status = st
		rec.Detail = err.Error()
		return rec, nil
	}

	plan, err := s.Resolve(e.Env, e.suiteOptions())
	if err != nil {
		return fail(report.StatusError, err)
	}
	rec.Params = plan.Params
	if err := plan.Check(); err != nil {
		return fail(report.StatusError, err)
	}
	command, err := plan.Command()
	if err != nil {
		return fail(report.StatusError, err)
	}
	rec.Command = command

	r := e.Runner
	if fake {
		if s.Fakeable {
			r = e.fakeRunner()
		} else {
			log.Printf("%s: fake runs are not supported, running %s", s.Name, s.Script)
		}
	}

	arts := plan.Artifacts()
	res, runErr := r.Run(ctx, command, e.Config.LogIDOrDefault())
	if res == nil {
		if runErr == nil {
			runErr = errors.New("runner returned no result")
		}
		return fail(report.StatusError, runErr)
	}
	rec.RunID = res.RunID
	rec.ExitCode = res.ExitCode
	rec.Fake = res.Fake
	rec.Elapsed = res.Elapsed().Seconds()
	rec.LogTail = tail(res.Log.Lines(), logTailLines)
	if res.Truncated {
		log.Printf("%s: output truncated", s.Name)
	}

	if arts.Log != "" {
		if err := res.Log.WriteFile(arts.Log); err != nil {
			log.Printf("%s: %v", s.Name, err)
		} else {
			rec.LogFile = arts.Log
			log.Printf("Log written to %s", arts.Log)
		}
	}

	if runErr != nil {
		var exitErr *runner.ExitError
		if errors.As(runErr, &exitErr) || errors.Is(runErr, context.DeadlineExceeded) || errors.Is(runErr, context.Canceled) {
			rec.Status = report.StatusFail
		} else {
			rec.Status = report.StatusError
		}
		rec.Detail = runErr.Error()
		return rec, res.Log
	}

	results, err := plan.Extract(res.Log.Lines())
	if err != nil {
		rec.Status = report.StatusError
		rec.Detail = err.Error()
		return rec, res.Log
	}
	rec.Values = results.Values
	rec.Numbers = results.Numbers
	rec.Throughput = results.Throughput
	rec.Jenkins = plan.Jenkins(results)
	rec.Summary = plan.Summary(results)

	rec.Status = report.StatusPass
	if err := plan.Accept(results); err != nil {
		rec.Status = report.StatusFail
		rec.Detail = err.Error()
	}

	if arts.Jenkins != "" {
		report.WriteJenkins(arts.Jenkins, rec.Jenkins)
	}
	e.printSummary(s, arts.Summary, rec.Summary)
	if arts.JSON != "" {
		if err := report.WriteJSON(arts.JSON, results); err != nil {
			log.Printf("%s: %v", s.Name, err)
		}
	}
	return rec, res.Log
}

func (e *Engine) printSummary(s *suite.Suite, path string, lines []string) {
	out := e.out()
	banner := fmt.Sprintf("----- %s Testing Summary ", s.Title)
	fmt.Fprintln(out)
	fmt.Fprintln(out, banner+strings.Repeat("-", max(8, 80-len(banner))))

	tee, err := report.NewTee(out, path)
	if err != nil {
		log.Printf("%s: %v", s.Name, err)
		tee, _ = report.NewTee(out, "")
	}
	tee.Lines(lines)
	if err := tee.Close(); err != nil {
		log.Printf("%s: writing summary: %v", s.Name, err)
	}
}

func tail(lines []string, n int) []string {
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return append([]string(nil), lines...)
}

// ExtractLog re-processes a stored run log with the rules of the named
// suite, or the standard rules when name is empty.
func ExtractLog(path, name string) (*extract.Results, error) {
	l, err := runlog.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rules := extract.StandardRules()
	if name != "" {
		s, ok := suite.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown suite %q (known: %v)", name, suite.Names())
		}
		rules = s.Rules()
	}
	res, err := extract.Extract(l.Lines(), rules)
	if err != nil {
		return nil, err
	}
	res.Throughput = extract.Throughput(l.Lines())
	return res, nil
}
