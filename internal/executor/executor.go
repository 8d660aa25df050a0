package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/moby/locker"

	"github.com/anvilworks/anvil/internal/events"
	"github.com/anvilworks/anvil/internal/job"
)

var (
	ErrStage         = errors.New("stage failed")
	ErrCommandFailed = errors.New("command failed")
)

// Runs jobs stage by stage, honoring declared resource locks.
type Executor struct {
	log   *slog.Logger   // Base logger; stages get a scoped child.
	queue *events.Queue  // Sink for stage lifecycle events.
	locks *locker.Locker // Named locks shared by all jobs on this executor.
}

// Creates an executor publishing to the given queue.
func New(log *slog.Logger, q *events.Queue) *Executor {
	return &Executor{
		log:   log,
		queue: q,
		locks: locker.New(),
	}
}

// Runs all stages of a job in order.
//
// The first failing stage aborts the job; remaining stages do not run.
// Safe to call concurrently for different jobs: stages declaring the same
// locked resource are serialized across all of them.
func (e *Executor) Run(ctx context.Context, j *job.Job) error {
	e.log.Info("running job", "job", j.ID, "stages", len(j.Stages))

	for _, st := range j.Stages {
		if err := e.runStage(ctx, j, st); err != nil {
			return fmt.Errorf("%w: job %s, stage %s: %w", ErrStage, j.ID, st.StageName(), err)
		}
	}

	return nil
}

// Runs a single stage, holding its declared lock for the duration.
func (e *Executor) runStage(ctx context.Context, j *job.Job, st job.Stage) error {
	if lock := st.LockedResource(); lock != "" {
		e.locks.Lock(lock)
		defer e.locks.Unlock(lock)
	}

	e.queue.Publish(events.Event{Job: j.ID, Stage: st.StageName(), Kind: events.StageStarted})

	log := e.log.With("job", j.ID, "stage", st.StageName())

	var err error
	switch s := st.(type) {
	case *job.CommandStage:
		err = e.runCommand(ctx, log, j, s)
	case *job.FunctionStage:
		err = s.Fn(ctx, log, e.queue)
	default:
		err = fmt.Errorf("unknown stage type %T", st)
	}

	if err != nil {
		e.queue.Publish(events.Event{Job: j.ID, Stage: st.StageName(), Kind: events.StageFailed, Message: err.Error()})
		return err
	}

	e.queue.Publish(events.Event{Job: j.ID, Stage: st.StageName(), Kind: events.StageFinished})
	return nil
}

// Runs a command stage with the job's environment.
//
// Output is captured and forwarded to the event queue. A non-zero exit
// code fails the stage; spawn errors are reported as-is.
func (e *Executor) runCommand(ctx context.Context, log *slog.Logger, j *job.Job, s *job.CommandStage) error {
	log.Debug("exec", "argv", s.Argv, "dir", s.Dir)

	cmd := exec.CommandContext(ctx, s.Argv[0], s.Argv[1:]...)
	cmd.Dir = s.Dir
	cmd.Env = j.Environ()

	out, err := cmd.CombinedOutput()
	if trimmed := strings.TrimSpace(string(out)); trimmed != "" {
		e.queue.Publish(events.Event{Job: j.ID, Stage: s.Name, Kind: events.StageOutput, Message: trimmed})
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: exit code %d", ErrCommandFailed, exitErr.ExitCode())
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCommandFailed, err)
	}

	return nil
}
