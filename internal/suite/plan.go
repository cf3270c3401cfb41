package suite

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/deixis/mxvalidate/internal/extract"
)

// PythonVersionVar selects the interpreter of versioned suites.
const PythonVersionVar = "PYTHON_VERSION_NUMBER"

// Options carry the host-level inputs of Resolve.
type Options struct {
	SourceDir string // used when the suite's log directory is unset
	Python    string // interpreter override
	Cores     int    // value of "auto" thread counts

	// LookPath finds the default interpreter; nil means exec.LookPath.
	LookPath func(file string) (string, error)
}

// Plan is a suite with every parameter resolved, ready to be checked
// and run.
type Plan struct {
	Suite     *Suite
	Params    map[string]string
	Raw       map[string]string // parameter values as set in the environment
	SourceDir string
	LogDir    string
	DataDir   string
	Script    string
	Python    string

	Reference    float64 // percent
	HasReference bool
	Acceptable   float64 // percent
}

// Resolve reads the suite's parameters from env.
func (s *Suite) Resolve(env Env, opts Options) (*Plan, error) {
	p := &Plan{Suite: s, Params: make(map[string]string, len(s.Params)), Raw: make(map[string]string)}

	for _, param := range s.Params {
		raw := param.Default
		if param.Env != "" {
			if v, ok := env.Lookup(param.Env); ok {
				raw = v
				p.Raw[param.Name] = v
			}
		}
		v, err := normalize(s, param, raw, opts.Cores)
		if err != nil {
			return nil, err
		}
		p.Params[param.Name] = v
	}

	if s.LogDirVar != "" {
		if dir, ok := env.Lookup(s.LogDirVar); ok {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return nil, &ParamError{Suite: s.Name, Param: s.LogDirVar, Value: dir, Reason: err.Error()}
			}
			p.LogDir = abs
		}
	}
	p.SourceDir = p.LogDir
	if p.SourceDir == "" {
		p.SourceDir = opts.SourceDir
	}
	if p.SourceDir != "" {
		p.Script = filepath.Join(p.SourceDir, s.Script)
	}

	p.DataDir = s.DataDefault
	if s.DataDirVar != "" {
		if dir, ok := env.Lookup(s.DataDirVar); ok {
			p.DataDir = dir
		}
	}

	if s.RefVar != "" {
		if v, ok := env.Lookup(s.RefVar); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, &ParamError{Suite: s.Name, Param: s.RefVar, Value: v, Reason: "not a number"}
			}
			p.Reference, p.HasReference = f, true
		}
		p.Acceptable = s.DeltaDef
		if v, ok := env.Lookup(s.DeltaVar); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, &ParamError{Suite: s.Name, Param: s.DeltaVar, Value: v, Reason: "not a number"}
			}
			p.Acceptable = f
		}
	}

	p.Python = resolvePython(s, env, opts)
	return p, nil
}

func normalize(s *Suite, param Param, raw string, cores int) (string, error) {
	raw = strings.TrimSpace(raw)
	name := param.Env
	if name == "" {
		name = param.Name
	}
	if param.Auto && strings.EqualFold(raw, "auto") {
		if cores <= 0 {
			return "", &ParamError{Suite: s.Name, Param: name, Value: raw, Reason: "host core count unknown"}
		}
		return strconv.Itoa(cores), nil
	}
	switch param.Kind {
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return "", &ParamError{Suite: s.Name, Param: name, Value: raw, Reason: "not an integer"}
		}
		return strconv.Itoa(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return "", &ParamError{Suite: s.Name, Param: name, Value: raw, Reason: "not a number"}
		}
		return raw, nil
	case KindBool:
		return strconv.FormatBool(truthy(raw)), nil
	}
	return raw, nil
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "", "0", "false", "no", "off", "none":
		return false
	}
	return true
}

func resolvePython(s *Suite, env Env, opts Options) string {
	if opts.Python != "" {
		return opts.Python
	}
	if s.Versioned {
		v, _ := env.Lookup(PythonVersionVar)
		return "python" + v
	}
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if path, err := lookPath("python"); err == nil {
		return path
	}
	return "python"
}

// String returns a resolved parameter.
func (p *Plan) String(name string) string { return p.Params[name] }

// Int returns a resolved integer parameter.
func (p *Plan) Int(name string) int {
	n, _ := strconv.Atoi(p.Params[name])
	return n
}

// Float returns a resolved float parameter.
func (p *Plan) Float(name string) float64 {
	f, _ := strconv.ParseFloat(p.Params[name], 64)
	return f
}

// Bool returns a resolved boolean parameter.
func (p *Plan) Bool(name string) bool { return p.Params[name] == "true" }

// Check verifies the script, log directory and data files exist. It
// never starts a process.
func (p *Plan) Check() error {
	s := p.Suite
	if s.NeedLogDir && p.LogDir == "" {
		return &CheckError{Suite: s.Name, Reason: fmt.Sprintf("log directory was not specified in %s", s.LogDirVar)}
	}
	if p.SourceDir == "" {
		return &CheckError{Suite: s.Name, Reason: fmt.Sprintf("source directory was not specified in %s or source_dir", s.LogDirVar)}
	}
	if fi, err := os.Stat(p.Script); err != nil || !fi.Mode().IsRegular() {
		return &CheckError{Suite: s.Name, Reason: fmt.Sprintf("Script path is not a file: %s", p.Script)}
	}
	if s.DataDirVar == "" {
		return nil
	}
	if p.DataDir == "" {
		return &CheckError{Suite: s.Name, Reason: fmt.Sprintf("Data directory was not specified in %s", s.DataDirVar)}
	}
	if fi, err := os.Stat(p.DataDir); err != nil || !fi.IsDir() {
		return &CheckError{Suite: s.Name, Reason: fmt.Sprintf("Data directory %s is not actually a directory", p.DataDir)}
	}
	for _, f := range s.DataFiles {
		fi, err := os.Stat(filepath.Join(p.DataDir, f))
		if err != nil || !fi.Mode().IsRegular() {
			return &CheckError{Suite: s.Name, Reason: fmt.Sprintf("Data file %s not found in %s", f, p.DataDir)}
		}
	}
	return nil
}

// Command builds the shell command line.
func (p *Plan) Command() (string, error) {
	return p.Suite.command(p)
}

// Extract builds the results dictionary of a run log, including any
// throughput samples it reports.
func (p *Plan) Extract(lines []string) (*extract.Results, error) {
	res, err := extract.Extract(lines, p.Suite.Rules())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Suite.Name, err)
	}
	res.Throughput = extract.Throughput(lines)
	return res, nil
}

// Jenkins renders the one-line description.
func (p *Plan) Jenkins(r *extract.Results) string {
	return p.Suite.jenkins(p, r)
}

// Summary renders the summary block, one entry per line.
func (p *Plan) Summary(r *extract.Results) []string {
	lines := p.Suite.summary(p, r)
	if p.HasReference && p.Suite.HasAccuracy() {
		acc := r.Number(extract.FieldAccuracy) * 100
		lines = append(lines,
			"",
			fmt.Sprintf("Reference accuracy: %7.4f%%", p.Reference),
			fmt.Sprintf("Accuracy delta: %6.4f%%", math.Abs(p.Reference-acc)),
			fmt.Sprintf("Acceptable accuracy delta is <= %6.4f%%", p.Acceptable),
		)
	}
	return lines
}

// Accept checks the extracted accuracy against the reference. Suites
// without a reference always pass.
func (p *Plan) Accept(r *extract.Results) error {
	if !p.HasReference || !p.Suite.HasAccuracy() {
		return nil
	}
	e := &AcceptError{
		Suite:      p.Suite.Name,
		Accuracy:   r.Number(extract.FieldAccuracy) * 100,
		Reference:  p.Reference,
		Acceptable: p.Acceptable,
	}
	if e.Delta() <= p.Acceptable {
		return nil
	}
	return e
}

// Artifacts names the files written for a run.
type Artifacts struct {
	Log     string
	Jenkins string
	Summary string
	JSON    string
}

// Artifacts returns the artifact paths, or the zero value when no log
// directory is set.
func (p *Plan) Artifacts() Artifacts {
	if p.LogDir == "" {
		return Artifacts{}
	}
	base := filepath.Join(p.LogDir, p.Suite.Prefix)
	return Artifacts{
		Log:     base + "_ngraph.log",
		Jenkins: base + "_jenkins_oneline.log",
		Summary: base + "_summary.log",
		JSON:    base + "_results.json",
	}
}
