// Package suite is the catalog of validation suites. Each suite knows how
// to resolve its parameters from the environment, check its
// preconditions, build the shell command that launches the framework
// script, and render its Jenkins one-liner and summary block.
package suite

import (
	"fmt"
	"sort"

	"github.com/deixis/mxvalidate/internal/extract"
)

// Env resolves environment variables. config.Env satisfies it.
type Env interface {
	Lookup(key string) (string, bool)
}

// Kind is the type a parameter value must parse as.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// Param is one tunable of a suite.
type Param struct {
	Name    string // key in Plan.Params
	Env     string // environment variable; empty for fixed values
	Default string
	Kind    Kind
	Label   string // summary label
	Auto    bool   // "auto" resolves to the host's physical core count
}

// Suite describes one validation test.
type Suite struct {
	Name        string
	Title       string // summary banner
	Description string
	Script      string // relative to the source directory
	Prefix      string // artifact file prefix
	LogDirVar   string
	DataDirVar  string
	DataDefault string // data directory used when DataDirVar is unset
	DataFiles   []string
	NeedLogDir  bool // the log directory is mandatory
	Fakeable    bool
	Versioned   bool // interpreter is python<PYTHON_VERSION_NUMBER>
	Params      []Param

	// Accuracy acceptance, both percentages. RefVar unset disables it.
	RefVar   string
	DeltaVar string
	DeltaDef float64

	rules   []extract.Rule
	command func(p *Plan) (string, error)
	jenkins func(p *Plan, r *extract.Results) string
	summary func(p *Plan, r *extract.Results) []string
}

// Rules returns the extraction rules for the suite's log.
func (s *Suite) Rules() []extract.Rule {
	if s.rules != nil {
		return s.rules
	}
	return extract.StandardRules()
}

// HasAccuracy reports whether the suite extracts a training accuracy.
func (s *Suite) HasAccuracy() bool {
	for _, r := range s.Rules() {
		if r.Field == extract.FieldAccuracy {
			return true
		}
	}
	return false
}

// Param returns the named parameter definition.
func (s *Suite) Param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

var registry = map[string]*Suite{}

func register(s *Suite) {
	if _, dup := registry[s.Name]; dup {
		panic("suite: duplicate registration of " + s.Name)
	}
	registry[s.Name] = s
}

// Lookup returns the named suite.
func Lookup(name string) (*Suite, bool) {
	s, ok := registry[name]
	return s, ok
}

// Names returns every suite name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns every suite, sorted by name.
func All() []*Suite {
	names := Names()
	out := make([]*Suite, len(names))
	for i, n := range names {
		out[i] = registry[n]
	}
	return out
}

// Select resolves names to suites, preserving order. An empty selection
// returns every suite.
func Select(names []string) ([]*Suite, error) {
	if len(names) == 0 {
		return All(), nil
	}
	out := make([]*Suite, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		s, ok := Lookup(n)
		if !ok {
			return nil, fmt.Errorf("unknown suite %q (known: %v)", n, Names())
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, s)
	}
	return out, nil
}
