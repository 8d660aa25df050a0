package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/anvilworks/anvil/internal/job"
	"github.com/anvilworks/anvil/internal/registry"
)

// Represents the 'anvil plan' command.
type PlanCmd struct {
	Package   string   `arg:"" help:"Package to plan."`
	BuildType string   `default:"python" help:"Build type to plan with."`
	ExtraArg  []string `name:"extra-arg" help:"Extra build-tool argument (repeatable)." placeholder:"ARG"`
}

// Executes the plan command.
//
// Plans the package's build job and prints the stage list without running
// anything.
func (c *PlanCmd) Run(ctx context.Context) error {
	wctx, err := loadWorkspace()
	if err != nil {
		return err
	}
	wctx.ExtraArgs = append(wctx.ExtraArgs, c.ExtraArg...)

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

	j, err := bt.NewBuildJob(ctx, wctx, pkg, registry.BuildOptions{})
	if err != nil {
		return err
	}

	printPlan(j)
	return nil
}

// Prints a job's stage list in execution order.
func printPlan(j *job.Job) {
	fmt.Printf("job %s (deps: %s)\n", j.ID, strings.Join(j.Deps, ", "))

	for i, st := range j.Stages {
		lock := st.LockedResource()
		if lock != "" {
			lock = " [lock: " + lock + "]"
		}

		switch s := st.(type) {
		case *job.CommandStage:
			fmt.Printf("%2d. %s%s\n      $ %s\n", i+1, s.Name, lock, strings.Join(s.Argv, " "))
		case *job.FunctionStage:
			fmt.Printf("%2d. %s%s\n", i+1, s.Name, lock)
			for _, arg := range sortedArgs(s.Args) {
				fmt.Printf("      %s = %s\n", arg, s.Args[arg])
			}
		}
	}
}

// Returns the argument names of a function stage in stable order.
func sortedArgs(args map[string]string) []string {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
