package job

import (
	"context"
	"log/slog"

	"github.com/anvilworks/anvil/internal/events"
)

// Name of the mutual-exclusion token guarding the shared install tree.
//
// Every stage that writes into the install space must declare this token so
// the executor serializes such writes across concurrently running jobs.
const LockInstallSpace = "installspace"

// Signature shared by all in-process stage functions.
//
// The logger and event queue are supplied by the executor at run time; any
// further arguments are bound into the closure when the stage is planned.
type Fn func(ctx context.Context, log *slog.Logger, q *events.Queue) error

// One unit of work within a job.
type Stage interface {

	// Returns the stage's short name, unique within its job.
	StageName() string

	// Returns the named resource the executor must hold exclusively while
	// this stage runs, or "" when no lock is required.
	LockedResource() string
}

// Runs an external command.
type CommandStage struct {
	Name string   // Stage name.
	Argv []string // Command and arguments.
	Dir  string   // Working directory. Empty inherits the executor's.
	Lock string   // Named resource to hold, or "".
}

// Returns the stage name.
func (s *CommandStage) StageName() string { return s.Name }

// Returns the declared resource lock.
func (s *CommandStage) LockedResource() string { return s.Lock }

// Calls an in-process function with arguments bound at plan time.
//
// Args records the bound arguments as strings so a plan can be inspected
// and logged without running anything. It is informational only; the
// authoritative values live inside the closure.
type FunctionStage struct {
	Name string            // Stage name.
	Fn   Fn                // Function to call.
	Args map[string]string // Bound arguments, for inspection.
	Lock string            // Named resource to hold, or "".
}

// Returns the stage name.
func (s *FunctionStage) StageName() string { return s.Name }

// Returns the declared resource lock.
func (s *FunctionStage) LockedResource() string { return s.Lock }

// One package's complete ordered build plan.
type Job struct {
	ID     string            // Package name.
	Deps   []string          // Names of packages that must build first.
	Env    map[string]string // Process environment for command stages.
	Stages []Stage           // Stages, run strictly in order.
}

// Returns the job environment as a list of "key=value" strings suitable
// for passing to process creation.
func (j *Job) Environ() []string {
	env := make([]string, 0, len(j.Env))
	for k, v := range j.Env {
		env = append(env, k+"="+v)
	}
	return env
}
