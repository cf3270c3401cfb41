package suite

import "fmt"

// CheckError reports a precondition that failed before any subprocess
// was started: a missing script, data directory or data file.
type CheckError struct {
	Suite  string
	Reason string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("%s: %s", e.Suite, e.Reason)
}

// ParamError reports a parameter that could not be resolved.
type ParamError struct {
	Suite  string
	Param  string // environment variable or parameter name
	Value  string
	Reason string
}

func (e *ParamError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s: %s", e.Suite, e.Param, e.Reason)
	}
	return fmt.Sprintf("%s: %s=%q: %s", e.Suite, e.Param, e.Value, e.Reason)
}

// AcceptError reports an accuracy outside the acceptable delta of the
// reference accuracy.
type AcceptError struct {
	Suite      string
	Accuracy   float64 // percent
	Reference  float64 // percent
	Acceptable float64 // percent
}

// Delta is the absolute difference between accuracy and reference.
func (e *AcceptError) Delta() float64 {
	d := e.Reference - e.Accuracy
	if d < 0 {
		return -d
	}
	return d
}

func (e *AcceptError) Error() string {
	return fmt.Sprintf("%s: accuracy %.4f%% is %.4f%% away from reference %.4f%% (acceptable <= %.4f%%)",
		e.Suite, e.Accuracy, e.Delta(), e.Reference, e.Acceptable)
}
