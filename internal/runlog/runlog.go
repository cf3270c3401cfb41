// Package runlog holds the captured output of a single validation run.
//
// A Log is the ordered list of lines a subprocess produced, framed by a
// leading "Command is:" line and a trailing "Run length:" line. Result
// extraction works on these lines only, so a Log read back from disk can
// be re-processed exactly like a fresh one.
package runlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Line prefixes written by the runner.
const (
	CommandPrefix = "Command is:"
	ElapsedPrefix = "Run length:"
)

// Log is an ordered sequence of captured output lines.
type Log struct {
	lines []string
	bytes int
}

// New returns a Log pre-populated with lines.
func New(lines ...string) *Log {
	l := &Log{}
	for _, line := range lines {
		l.Append(line)
	}
	return l
}

// Append adds a line to the end of the log.
func (l *Log) Append(line string) {
	l.lines = append(l.lines, line)
	l.bytes += len(line) + 1
}

// Lines returns the captured lines. The slice must not be modified.
func (l *Log) Lines() []string {
	return l.lines
}

// Len returns the number of lines.
func (l *Log) Len() int {
	return len(l.lines)
}

// Size returns the number of bytes the log occupies on disk.
func (l *Log) Size() int {
	return l.bytes
}

// String joins the lines with newlines.
func (l *Log) String() string {
	if len(l.lines) == 0 {
		return ""
	}
	return strings.Join(l.lines, "\n") + "\n"
}

// WriteFile writes one line per entry to path, replacing any existing file.
func (l *Log) WriteFile(path string) error {
	if err := os.WriteFile(path, []byte(l.String()), 0o644); err != nil {
		return fmt.Errorf("writing log %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a log previously written with WriteFile.
func ReadFile(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading log %s: %w", path, err)
	}
	defer f.Close()

	l := &Log{}
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			l.Append(strings.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			return l, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading log %s: %w", path, err)
		}
	}
}

// CommandLine returns the line recording which command was run.
func CommandLine(command string) string {
	return fmt.Sprintf("%s %q", CommandPrefix, command)
}
