package runner

import (
	"context"
	"log"
	"math/rand/v2"
	"time"

	"github.com/deixis/mxvalidate/internal/runlog"
	"github.com/google/uuid"
)

// Default sleep bounds for fake runs.
const (
	DefaultFakeMinSleep = 5 * time.Second
	DefaultFakeMaxSleep = 15 * time.Second
)

// FakeLog is the canned output returned by a fake run, before the
// elapsed line.
var FakeLog = []string{
	"Fake log",
	"Nothing run",
	"{'loss': 15.762859, 'global_step': 391, 'accuracy': 0.1045}",
}

// FakeRunner exercises result handling without starting a process.
// It sleeps a random duration within [MinSleep, MaxSleep] and returns
// FakeLog.
type FakeRunner struct {
	MinSleep time.Duration
	MaxSleep time.Duration

	// Int64N overrides the random source in tests.
	Int64N func(n int64) int64
	// Now overrides time.Now in tests.
	Now func() time.Time
}

// Run pretends to execute command. If ctx is cancelled while sleeping it
// returns early with the partial Result and the context error.
func (f *FakeRunner) Run(ctx context.Context, command, logID string) (*Result, error) {
	log.Printf("fake command%s, would have run: %s", logID, command)

	res := &Result{
		RunID:   uuid.New().String(),
		Command: command,
		Log:     runlog.New(FakeLog...),
		Fake:    true,
		Started: f.now(),
	}

	timer := time.NewTimer(f.SleepDuration())
	defer timer.Stop()
	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-timer.C:
	}

	res.Finished = f.now()
	res.Log.Append(runlog.ElapsedLine(res.Started, res.Finished))
	return res, err
}

// SleepDuration picks the duration of the next fake run.
func (f *FakeRunner) SleepDuration() time.Duration {
	lo, hi := f.MinSleep, f.MaxSleep
	if lo == 0 && hi == 0 {
		lo, hi = DefaultFakeMinSleep, DefaultFakeMaxSleep
	}
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	span := int64(hi - lo)
	if span == 0 {
		return lo
	}
	n := rand.Int64N
	if f.Int64N != nil {
		n = f.Int64N
	}
	return lo + time.Duration(n(span+1))
}

func (f *FakeRunner) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}
