package runner

import (
	"fmt"
	"time"

	"github.com/deixis/mxvalidate/internal/runlog"
)

// Result holds the outcome of a command execution.
type Result struct {
	RunID     string      // unique identifier for this run
	Command   string      // shell command that was run
	Log       *runlog.Log // captured output, framed by command and elapsed lines
	ExitCode  int         // process exit code
	PID       int         // process id; 0 for fake runs
	Started   time.Time
	Finished  time.Time
	Truncated bool // true if output exceeded the size cap
	Fake      bool // true if no process was started
}

// Elapsed returns the wall-clock duration of the run.
func (r *Result) Elapsed() time.Duration {
	return r.Finished.Sub(r.Started)
}

// ExitError reports a command that exited with a non-zero status.
// The Result returned alongside it still holds the captured log.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q returned non-zero exit code %d", e.Command, e.Code)
}
