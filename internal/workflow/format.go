package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/deixis/mxvalidate/internal/extract"
	"github.com/deixis/mxvalidate/internal/report"
	"github.com/deixis/mxvalidate/internal/suite"
)

// FormatRun renders a run as a short status table.
func FormatRun(run *report.RunResult) string {
	var b strings.Builder
	mode := ""
	if run.Fake {
		mode = " (fake)"
	}
	fmt.Fprintf(&b, "run %s%s: %s\n", run.ID, mode, run.CountLine())
	for _, s := range run.Suites {
		fmt.Fprintf(&b, "  %-8s %-22s %9s  %s\n", s.Status, s.Name, formatElapsed(s), suiteNote(s))
	}
	return b.String()
}

func formatElapsed(s report.SuiteRecord) string {
	if s.Status == report.StatusSkipped || (s.Status == report.StatusError && s.RunID == "") {
		return "-"
	}
	return fmt.Sprintf("%.1fs", s.Elapsed)
}

func suiteNote(s report.SuiteRecord) string {
	if s.Status != report.StatusPass {
		return s.Detail
	}
	var notes []string
	if acc, ok := s.Numbers[extract.FieldAccuracy]; ok {
		notes = append(notes, fmt.Sprintf("accuracy=%.4f", acc))
	}
	if n := len(s.Throughput); n > 0 {
		notes = append(notes, fmt.Sprintf("%d throughput samples", n))
	}
	if s.Fake {
		notes = append(notes, "fake")
	}
	return strings.Join(notes, " ")
}

// FormatSuites renders the suite catalog, one suite per line.
func FormatSuites(suites []*suite.Suite) string {
	var b strings.Builder
	for _, s := range suites {
		fake := ""
		if s.Fakeable {
			fake = " [fakeable]"
		}
		fmt.Fprintf(&b, "%-22s %s%s\n", s.Name, s.Description, fake)
	}
	return b.String()
}

// FormatPlan renders the resolved parameters of a suite.
func FormatPlan(p *suite.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.Suite.Name)
	fmt.Fprintf(&b, "  script:     %s\n", orNone(p.Script))
	fmt.Fprintf(&b, "  log dir:    %s (%s)\n", orNone(p.LogDir), p.Suite.LogDirVar)
	if p.Suite.DataDirVar != "" {
		fmt.Fprintf(&b, "  data dir:   %s (%s)\n", orNone(p.DataDir), p.Suite.DataDirVar)
	}
	fmt.Fprintf(&b, "  python:     %s\n", p.Python)
	keys := make([]string, 0, len(p.Params))
	for k := range p.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		param, _ := p.Suite.Param(k)
		env := param.Env
		if env == "" {
			env = "fixed"
		}
		fmt.Fprintf(&b, "  %-16s %s (%s)\n", k+":", p.Params[k], env)
	}
	if cmd, err := p.Command(); err == nil {
		fmt.Fprintf(&b, "  command:    %s\n", cmd)
	} else {
		fmt.Fprintf(&b, "  command:    error: %v\n", err)
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

// FormatSuite renders everything recorded for one suite: status,
// command, parameters, extracted values, throughput, Jenkins line,
// summary and the tail of the log.
func FormatSuite(runID string, rec *report.SuiteRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n", runID)
	fmt.Fprintf(&b, "%s: %s\n", rec.Name, rec.Status)
	if rec.Detail != "" {
		fmt.Fprintf(&b, "  detail:  %s\n", rec.Detail)
	}
	if rec.Command != "" {
		fmt.Fprintf(&b, "  command: %s\n", rec.Command)
	}
	if rec.RunID != "" {
		fake := ""
		if rec.Fake {
			fake = ", fake"
		}
		fmt.Fprintf(&b, "  exit %d after %.1fs%s\n", rec.ExitCode, rec.Elapsed, fake)
	}
	if rec.LogFile != "" {
		fmt.Fprintf(&b, "  log:     %s\n", rec.LogFile)
	}

	writeMap(&b, "Parameters", rec.Params)
	writeMap(&b, "Results", rec.Values)

	if len(rec.Throughput) > 0 {
		fmt.Fprintln(&b, "\nThroughput:")
		for _, s := range rec.Throughput {
			fmt.Fprintf(&b, "  %-40s %10.2f img/s\n", s.Name(), s.ImagesSec)
		}
	}
	if rec.Jenkins != "" {
		fmt.Fprintf(&b, "\nJenkins: %s\n", rec.Jenkins)
	}
	if len(rec.Summary) > 0 {
		fmt.Fprintln(&b, "\nSummary:")
		for _, line := range rec.Summary {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	if len(rec.LogTail) > 0 {
		fmt.Fprintln(&b, "\nLog tail:")
		for _, line := range rec.LogTail {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	return b.String()
}

func writeMap(b *strings.Builder, title string, m map[string]string) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(b, "  %-16s %s\n", k+":", m[k])
	}
}
