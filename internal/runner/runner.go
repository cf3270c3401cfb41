// Package runner executes validation commands through the shell, capturing
// merged stdout and stderr line by line while echoing it with a timestamp.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/deixis/mxvalidate/internal/runlog"
	"github.com/google/uuid"
)

// DefaultShell interprets run commands.
const DefaultShell = "/bin/sh"

// DefaultDrainDelay bounds how long output is still read after the shell
// exits while a background child holds the pipe open.
const DefaultDrainDelay = time.Second

// Runner executes one command at a time within a workspace.
type Runner struct {
	Workspace string
	Timeout   time.Duration // 0 disables the deadline
	MaxOutput int           // bytes of output retained in the log; 0 means unlimited
	Shell     string        // defaults to DefaultShell

	// DrainDelay defaults to DefaultDrainDelay.
	DrainDelay time.Duration

	// Echo receives every captured line prefixed with the time of day
	// and the log ID. Nil discards.
	Echo io.Writer
	// Filters restricts echoing to lines matching at their start. Every
	// line is still captured in the log.
	Filters []*regexp.Regexp

	// Now overrides time.Now in tests.
	Now func() time.Time
}

// Run executes command with sh -c and waits for it to exit. logID is
// appended to the timestamp of every echoed line (e.g. " nGraph").
//
// A non-zero exit status returns both the Result and an *ExitError.
func (r *Runner) Run(ctx context.Context, command, logID string) (*Result, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("empty command")
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	shell := r.Shell
	if shell == "" {
		shell = DefaultShell
	}

	res := &Result{
		RunID:   uuid.New().String(),
		Command: command,
		Log:     runlog.New(runlog.CommandLine(command)),
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Dir = r.Workspace

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	res.Started = r.now()
	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, fmt.Errorf("starting %q: %w", command, err)
	}
	_ = pw.Close()
	res.PID = cmd.Process.Pid
	log.Printf("subprocess started at %s with PID %d", res.Started.Format(time.DateTime), res.PID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.capture(pr, logID, res)
	}()

	waitErr := cmd.Wait()
	res.Finished = r.now()

	// Background children may keep the write end open after the shell
	// exits; closing the read end unblocks the line loop.
	select {
	case <-done:
	case <-time.After(r.drainDelay()):
		_ = pr.Close()
		<-done
	}
	_ = pr.Close()
	if res.Truncated {
		log.Printf("WARNING: output of %q truncated, %d bytes kept", command, res.Log.Size())
	}
	res.Log.Append(runlog.ElapsedLine(res.Started, res.Finished))
	log.Printf("subprocess completed at %s", res.Finished.Format(time.DateTime))

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("running %q: %w", command, ctxErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			log.Printf("ERROR: subprocess (%s) returned non-zero exit code %d", command, res.ExitCode)
			return res, &ExitError{Command: command, Code: res.ExitCode}
		}
		return res, fmt.Errorf("waiting for %q: %w", command, waitErr)
	}
	return res, nil
}

// capture reads lines until EOF, appending each to the log and echoing it.
// Once MaxOutput bytes of output are captured the rest is only echoed, so
// the log never holds a later line without the ones before it.
func (r *Runner) capture(rd io.Reader, logID string, res *Result) {
	br := bufio.NewReader(rd)
	var captured int
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSpace(line)
			switch {
			case res.Truncated:
			case r.MaxOutput > 0 && captured+len(line)+1 > r.MaxOutput:
				res.Truncated = true
			default:
				captured += len(line) + 1
				res.Log.Append(line)
			}
			r.echo(logID, line)
		}
		if err != nil {
			return
		}
	}
}

func (r *Runner) echo(logID, line string) {
	if r.Echo == nil {
		return
	}
	if len(r.Filters) > 0 && !matchAny(r.Filters, line) {
		return
	}
	fmt.Fprintf(r.Echo, "%s%s: %s\n", r.now().Format("15:04:05.000000"), logID, line)
}

func (r *Runner) drainDelay() time.Duration {
	if r.DrainDelay > 0 {
		return r.DrainDelay
	}
	return DefaultDrainDelay
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// matchAny reports whether any pattern matches at the start of s.
func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if loc := re.FindStringIndex(s); loc != nil && loc[0] == 0 {
			return true
		}
	}
	return false
}
