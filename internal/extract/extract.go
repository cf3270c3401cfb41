// Package extract turns a run log into a results dictionary by matching
// line-anchored patterns.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Floor is substituted for missing or zero accuracy and wallclock values
// so later ratios never divide by zero.
const Floor = 1e-9

// Standard field names.
const (
	FieldCommand   = "command"
	FieldAccuracy  = "accuracy"
	FieldWallclock = "wallclock"
	FieldOneLine   = "one_line"
)

// Rule extracts one field. Pattern is matched against the start of each
// line and Group selects the captured value.
type Rule struct {
	Field   string
	Label   string // used in "multiple <label> lines found"
	Pattern *regexp.Regexp
	Group   int
	Numeric bool
	Floor   float64 // replaces missing or zero numeric values when > 0
	Unquote bool
}

// Results is the dictionary extracted from one run log.
type Results struct {
	Values     map[string]string  `json:"values"`
	Numbers    map[string]float64 `json:"numbers,omitempty"`
	Throughput []Sample           `json:"throughput,omitempty"`
}

// Value returns a textual field.
func (r *Results) Value(field string) string { return r.Values[field] }

// Number returns a numeric field.
func (r *Results) Number(field string) float64 { return r.Numbers[field] }

// Keys returns the extracted field names, sorted.
func (r *Results) Keys() []string {
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	commandRule = Rule{
		Field:   FieldCommand,
		Label:   "Command is:",
		Pattern: regexp.MustCompile(`^Command is:\s*(.*)$`),
		Group:   1,
		Unquote: true,
	}
	accuracyRule = Rule{
		Field:   FieldAccuracy,
		Label:   "Accuracy:",
		Pattern: regexp.MustCompile(`^(?:Accuracy:\s*|\{.*'accuracy':\s*)([-+0-9.eE]+)`),
		Group:   1,
		Numeric: true,
		Floor:   Floor,
	}
	wallclockRule = Rule{
		Field:   FieldWallclock,
		Label:   "Run length:",
		Pattern: regexp.MustCompile(`^Run length:\s+(\S+)`),
		Group:   1,
		Numeric: true,
		Floor:   Floor,
	}
	oneLineRule = Rule{
		Field:   FieldOneLine,
		Label:   "network:",
		Pattern: regexp.MustCompile(`^(network:.*)$`),
		Group:   1,
	}
)

// StandardRules returns the rules every suite extracts: command,
// accuracy and wallclock.
func StandardRules() []Rule {
	return []Rule{commandRule, accuracyRule, wallclockRule}
}

// CommandRule extracts the quoted command of the first log line.
func CommandRule() Rule { return commandRule }

// AccuracyRule extracts the accuracy reported by a training script.
func AccuracyRule() Rule { return accuracyRule }

// WallclockRule extracts the elapsed seconds of the run.
func WallclockRule() Rule { return wallclockRule }

// OneLineRule extracts the "network:" line of a deepmark log.
func OneLineRule() Rule { return oneLineRule }

// Extract applies rules to lines and returns the results dictionary.
// A field matched on more than one line is an error.
func Extract(lines []string, rules []Rule) (*Results, error) {
	res := &Results{
		Values:  make(map[string]string),
		Numbers: make(map[string]float64),
	}
	for _, rule := range rules {
		value, found, err := apply(lines, rule)
		if err != nil {
			return nil, err
		}
		if !rule.Numeric {
			if found {
				res.Values[rule.Field] = value
			}
			continue
		}
		var n float64
		if found {
			n, err = strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("%s value %q is not a number", rule.Label, value)
			}
		}
		if n == 0 && rule.Floor > 0 {
			n = rule.Floor
		}
		res.Numbers[rule.Field] = n
		res.Values[rule.Field] = strconv.FormatFloat(n, 'g', -1, 64)
	}
	return res, nil
}

func apply(lines []string, rule Rule) (string, bool, error) {
	var (
		value string
		found bool
	)
	for _, line := range lines {
		m := rule.Pattern.FindStringSubmatch(line)
		if m == nil || rule.Group >= len(m) {
			continue
		}
		if found {
			return "", false, fmt.Errorf("multiple %s lines found", rule.Label)
		}
		value, found = strings.TrimSpace(m[rule.Group]), true
		if rule.Unquote {
			if s, err := strconv.Unquote(value); err == nil {
				value = s
			}
		}
	}
	return value, found, nil
}
