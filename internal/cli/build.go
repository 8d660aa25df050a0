package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/anvilworks/anvil/internal/events"
	"github.com/anvilworks/anvil/internal/executor"
	"github.com/anvilworks/anvil/internal/paths"
	"github.com/anvilworks/anvil/internal/registry"
)

// Represents the 'anvil build' command.
type BuildCmd struct {
	Package        string   `arg:"" help:"Package to build."`
	BuildType      string   `default:"python" help:"Build type to build with."`
	IsolateInstall bool     `help:"Install into a per-package subdirectory of the install space."`
	ExtraArg       []string `name:"extra-arg" help:"Extra build-tool argument (repeatable)." placeholder:"ARG"`
	PreClean       bool     `help:"Clean the package's build space before building."`
}

// Executes the build command.
//
// Plans the package's build job and runs it with the reference executor.
// Stage events are appended to a per-package log file under the state
// directory.
func (c *BuildCmd) Run(ctx context.Context) error {
	wctx, err := loadWorkspace()
	if err != nil {
		return err
	}
	wctx.ExtraArgs = append(wctx.ExtraArgs, c.ExtraArg...)
	if c.IsolateInstall {
		wctx.IsolateInstall = true
	}

	pkg, err := findPackage(wctx, c.Package)
	if err != nil {
		return err
	}

	reg, err := newRegistry()
	if err != nil {
		return err
	}
	bt, ok := reg.Lookup(c.BuildType)
	if !ok {
		return fmt.Errorf("unknown build type %q (known: %s)", c.BuildType, strings.Join(reg.Names(), ", "))
	}

	j, err := bt.NewBuildJob(ctx, wctx, pkg, registry.BuildOptions{PreClean: c.PreClean})
	if err != nil {
		return err
	}

	queue := events.NewQueue(256)
	done := make(chan struct{})
	go drainEvents(queue, jobLogFile(pkg.Name), done)

	exc := executor.New(slog.Default(), queue)
	runErr := exc.Run(ctx, j)

	queue.Close()
	<-done

	if runErr != nil {
		return runErr
	}

	slog.Info("build finished", "package", pkg.Name, "install", wctx.PackageDest(pkg))
	return nil
}

// Opens the per-package build log for appending, or nil when the log
// directory cannot be created.
func jobLogFile(pkg string) *os.File {
	if err := os.MkdirAll(paths.Logs(), paths.DefaultDirMode); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(paths.Logs(), pkg+".log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, paths.DefaultFileMode)
	if err != nil {
		return nil
	}
	return f
}

// Forwards stage events to the debug log and the per-package log file
// until the queue is closed.
func drainEvents(q *events.Queue, logFile *os.File, done chan<- struct{}) {
	defer close(done)
	if logFile != nil {
		defer logFile.Close()
	}

	for ev := range q.Events() {
		slog.Debug("stage event", "job", ev.Job, "stage", ev.Stage, "kind", ev.Kind, "message", ev.Message)
		if logFile != nil {
			fmt.Fprintf(logFile, "%s %s/%s %s %s\n", ev.Time.Format("2006-01-02T15:04:05"), ev.Job, ev.Stage, ev.Kind, ev.Message)
		}
	}
}
