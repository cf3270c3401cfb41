package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
)

// WriteJenkins writes the one-line Jenkins description to path. A write
// failure is logged, not returned: the description is a convenience for
// humans and never fails a suite.
func WriteJenkins(path, text string) {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		log.Printf("unable to write Jenkins description file - %v", err)
		return
	}
	log.Printf("Jenkins description written to %s", path)
}

// WriteJSON writes v as indented JSON to path.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Printf("JSON results written to %s", path)
	return nil
}

// Tee writes summary lines to an output stream and, optionally, to a
// log file.
type Tee struct {
	out  io.Writer
	file *os.File
	buf  *bufio.Writer
	err  error
}

// NewTee creates a Tee writing to out and, when path is non-empty, to
// the file at path (truncated).
func NewTee(out io.Writer, path string) (*Tee, error) {
	t := &Tee{out: out}
	if path == "" {
		return t, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open log-file %s: %w", path, err)
	}
	t.file = f
	t.buf = bufio.NewWriter(f)
	return t, nil
}

// Line writes one line. The first write error is kept and reported by
// Flush and Close.
func (t *Tee) Line(message string) {
	if t.out != nil {
		fmt.Fprintln(t.out, message)
	}
	if t.buf != nil && t.err == nil {
		_, t.err = fmt.Fprintln(t.buf, message)
	}
}

// Lines writes each message with Line.
func (t *Tee) Lines(messages []string) {
	for _, m := range messages {
		t.Line(m)
	}
}

// Flush pushes buffered lines to the log file.
func (t *Tee) Flush() error {
	if t.buf == nil {
		return t.err
	}
	if err := t.buf.Flush(); err != nil && t.err == nil {
		t.err = err
	}
	return t.err
}

// Close flushes and closes the log file.
func (t *Tee) Close() error {
	err := t.Flush()
	if t.file == nil {
		return err
	}
	if cerr := t.file.Close(); cerr != nil && err == nil {
		err = cerr
	}
	t.file, t.buf = nil, nil
	return err
}
