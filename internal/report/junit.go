package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

type junitSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name      string      `xml:"name,attr"`
	Tests     int         `xml:"tests,attr"`
	Failures  int         `xml:"failures,attr"`
	Errors    int         `xml:"errors,attr"`
	Skipped   int         `xml:"skipped,attr"`
	Time      string      `xml:"time,attr"`
	Timestamp string      `xml:"timestamp,attr"`
	Cases     []junitCase `xml:"testcase"`
}

type junitCase struct {
	Classname string        `xml:"classname,attr"`
	Name      string        `xml:"name,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitMessage `xml:"failure,omitempty"`
	Error     *junitMessage `xml:"error,omitempty"`
	Skipped   *junitMessage `xml:"skipped,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

type junitMessage struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// WriteJUnit renders run as JUnit XML. Every suite becomes one test
// case named test_<suite>; prefix, when set, is prepended to the class
// name the way pytest's --junit-prefix does.
func WriteJUnit(w io.Writer, run *RunResult, prefix string) error {
	classname := "mxvalidate"
	if prefix != "" {
		classname = prefix + "." + classname
	}
	ts := junitSuite{
		Name:      "mxvalidate",
		Tests:     len(run.Suites),
		Timestamp: run.StartedAt.UTC().Format("2006-01-02T15:04:05"),
	}
	var total float64
	for _, s := range run.Suites {
		total += s.Elapsed
		tc := junitCase{
			Classname: classname,
			Name:      "test_" + strings.ReplaceAll(s.Name, "-", "_"),
			Time:      fmt.Sprintf("%.3f", s.Elapsed),
		}
		msg := &junitMessage{Message: s.Detail, Body: strings.Join(s.LogTail, "\n")}
		switch s.Status {
		case StatusFail:
			ts.Failures++
			tc.Failure = msg
		case StatusError:
			ts.Errors++
			tc.Error = msg
		case StatusSkipped:
			ts.Skipped++
			tc.Skipped = &junitMessage{Message: s.Detail}
		default:
			tc.SystemOut = strings.Join(s.Summary, "\n")
		}
		ts.Cases = append(ts.Cases, tc)
	}
	ts.Time = fmt.Sprintf("%.3f", total)

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(junitSuites{Suites: []junitSuite{ts}}); err != nil {
		return fmt.Errorf("encoding JUnit XML: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteJUnitFile writes the JUnit XML of run to path.
func WriteJUnitFile(path string, run *RunResult, prefix string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteJUnit(f, run, prefix); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
