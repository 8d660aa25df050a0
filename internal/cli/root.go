package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/anvilworks/anvil/internal"
	"github.com/anvilworks/anvil/internal/config"
	"github.com/anvilworks/anvil/internal/python"
	"github.com/anvilworks/anvil/internal/registry"
	"github.com/anvilworks/anvil/internal/workspace"
)

// Represents the root command for the anvil tool.
var RootCmd struct {
	Quiet     bool       `short:"q" help:"Suppress informational output."`
	Debug     bool       `short:"d" help:"Enable debug output."`
	Workspace string     `short:"C" help:"Workspace directory." default:"." placeholder:"DIR"`
	Plan      PlanCmd    `cmd:"" help:"Print a package's build plan without running it."`
	Build     BuildCmd   `cmd:"" help:"Build a package into the install space."`
	List      ListCmd    `cmd:"" help:"List packages discovered in the source space."`
	Version   VersionCmd `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Builds plain Python packages from a source workspace into a shared install space."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Configures the global logger based on CLI flags.
func configureLogger() {
	level := slog.LevelInfo
	if RootCmd.Debug || internal.IsDebug() {
		level = slog.LevelDebug
	} else if RootCmd.Quiet || internal.IsQuiet() {
		level = slog.LevelWarn
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler).WithGroup(internal.Name))
}

// Loads the workspace context for the configured workspace directory.
func loadWorkspace() (*workspace.Context, error) {
	return config.Load(RootCmd.Workspace)
}

// Creates the registry with all built-in build types registered.
func newRegistry() (*registry.Registry, error) {
	reg := registry.New()
	if err := reg.Register(python.BuildType()); err != nil {
		return nil, err
	}
	return reg, nil
}

// Locates a package by name in the workspace's source space.
func findPackage(wctx *workspace.Context, name string) (*workspace.Package, error) {
	pkgs, err := workspace.Scan(wctx.SourceSpace)
	if err != nil {
		return nil, err
	}
	for _, pkg := range pkgs {
		if pkg.Name == name {
			return pkg, nil
		}
	}
	return nil, fmt.Errorf("package %q not found in %s", name, wctx.SourceSpace)
}
