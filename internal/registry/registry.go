package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/anvilworks/anvil/internal/job"
	"github.com/anvilworks/anvil/internal/workspace"
)

var ErrRegistry = errors.New("build type registry error")

// Options common to all build-job factories.
type BuildOptions struct {
	Force    bool // Plan a full rebuild even when outputs look current.
	PreClean bool // Clean the package's build space before building.
}

// Options common to all clean-job factories.
type CleanOptions struct {
	DryRun       bool // Plan the clean without any destructive stages.
	CleanBuild   bool // Remove the package's build space.
	CleanInstall bool // Remove the package's install output.
}

// Creates a build job for one package.
type BuildJobFunc func(ctx context.Context, wctx *workspace.Context, pkg *workspace.Package, opts BuildOptions) (*job.Job, error)

// Creates a clean job for one package.
type CleanJobFunc func(ctx context.Context, wctx *workspace.Context, pkg *workspace.Package, opts CleanOptions) (*job.Job, error)

// Describes one registered kind of package build.
type BuildType struct {
	Name        string       // Build type name (e.g. "python").
	Description string       // Human-readable description.
	NewBuildJob BuildJobFunc // Build-job factory.
	NewCleanJob CleanJobFunc // Clean-job factory.
}

// Holds the build types registered with one tool instance.
type Registry struct {
	types map[string]*BuildType
}

// Creates an empty registry.
func New() *Registry {
	return &Registry{types: make(map[string]*BuildType)}
}

// Registers a build type under its name.
//
// Registering a second build type with the same name is an error.
func (r *Registry) Register(bt *BuildType) error {
	if bt.Name == "" {
		return fmt.Errorf("%w: build type has no name", ErrRegistry)
	}
	if _, ok := r.types[bt.Name]; ok {
		return fmt.Errorf("%w: build type %q already registered", ErrRegistry, bt.Name)
	}
	r.types[bt.Name] = bt
	return nil
}

// Returns the build type registered under name.
func (r *Registry) Lookup(name string) (*BuildType, bool) {
	bt, ok := r.types[name]
	return bt, ok
}

// Returns the registered build type names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
