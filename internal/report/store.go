// Package report persists validation runs and renders their artifacts:
// run logs, Jenkins one-liners, summary blocks, JSON results and JUnit
// XML. Stored runs can be queried by suite and field.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/deixis/mxvalidate/internal/extract"
)

// Status is the outcome of one suite.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"    // non-zero exit or accuracy out of bounds
	StatusError   Status = "error"   // precondition, configuration or extraction error
	StatusSkipped Status = "skipped" // not run after an earlier failure
)

// Store persists and retrieves run results.
type Store interface {
	Save(result *RunResult) error
	Load(runID string) (*RunResult, error)
	List() ([]string, error)
}

// RunResult is one invocation of the validation engine.
type RunResult struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Fake       bool          `json:"fake,omitempty"`
	Host       string        `json:"host,omitempty"`
	Suites     []SuiteRecord `json:"suites"`
}

// SuiteRecord is the outcome of one suite within a run.
type SuiteRecord struct {
	Name       string             `json:"name"`
	Status     Status             `json:"status"`
	Detail     string             `json:"detail,omitempty"`
	RunID      string             `json:"run_id,omitempty"` // subprocess run
	Command    string             `json:"command,omitempty"`
	ExitCode   int                `json:"exit_code"`
	Fake       bool               `json:"fake,omitempty"`
	Elapsed    float64            `json:"elapsed_seconds"`
	Params     map[string]string  `json:"params,omitempty"`
	Values     map[string]string  `json:"values,omitempty"`
	Numbers    map[string]float64 `json:"numbers,omitempty"`
	Throughput []extract.Sample   `json:"throughput,omitempty"`
	Jenkins    string             `json:"jenkins,omitempty"`
	Summary    []string           `json:"summary,omitempty"`
	LogFile    string             `json:"log_file,omitempty"`
	LogTail    []string           `json:"log_tail,omitempty"`
}

// Passed reports whether every suite passed.
func (r *RunResult) Passed() bool {
	for _, s := range r.Suites {
		if s.Status != StatusPass {
			return false
		}
	}
	return true
}

// Counts tallies suites by status.
func (r *RunResult) Counts() map[Status]int {
	out := make(map[Status]int, 4)
	for _, s := range r.Suites {
		out[s.Status]++
	}
	return out
}

// CountLine renders Counts as "2 pass, 1 fail".
func (r *RunResult) CountLine() string {
	counts := r.Counts()
	var parts []string
	for _, st := range []Status{StatusPass, StatusFail, StatusError, StatusSkipped} {
		if n := counts[st]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, st))
		}
	}
	if len(parts) == 0 {
		return "no suites"
	}
	return strings.Join(parts, ", ")
}

// BySuite returns the record of the named suite.
func BySuite(run *RunResult, name string) (*SuiteRecord, error) {
	for i := range run.Suites {
		if run.Suites[i].Name == name {
			return &run.Suites[i], nil
		}
	}
	return nil, fmt.Errorf("run %s has no suite %q", run.ID, name)
}

// Field returns one value of a suite record. Extracted results take
// precedence over parameters; record attributes such as status and
// exit_code are reachable by their JSON names.
func Field(run *RunResult, suite, field string) (string, error) {
	rec, err := BySuite(run, suite)
	if err != nil {
		return "", err
	}
	if v, ok := rec.Values[field]; ok {
		return v, nil
	}
	if v, ok := rec.Params[field]; ok {
		return v, nil
	}
	switch field {
	case "status":
		return string(rec.Status), nil
	case "detail":
		return rec.Detail, nil
	case "run_id":
		return rec.RunID, nil
	case "command":
		return rec.Command, nil
	case "exit_code":
		return strconv.Itoa(rec.ExitCode), nil
	case "elapsed_seconds":
		return strconv.FormatFloat(rec.Elapsed, 'f', -1, 64), nil
	case "jenkins":
		return rec.Jenkins, nil
	case "summary":
		return strings.Join(rec.Summary, "\n"), nil
	case "log_file":
		return rec.LogFile, nil
	case "log_tail":
		return strings.Join(rec.LogTail, "\n"), nil
	}
	return "", fmt.Errorf("suite %s has no field %q (have %s)", suite, field, strings.Join(Fields(rec), ", "))
}

// Fields lists the names Field accepts for rec, sorted.
func Fields(rec *SuiteRecord) []string {
	seen := map[string]bool{
		"status": true, "detail": true, "run_id": true, "command": true,
		"exit_code": true, "elapsed_seconds": true, "jenkins": true,
		"summary": true, "log_file": true, "log_tail": true,
	}
	for k := range rec.Values {
		seen[k] = true
	}
	for k := range rec.Params {
		seen[k] = true
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
