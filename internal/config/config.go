package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"

	"github.com/anvilworks/anvil/internal/paths"
	"github.com/anvilworks/anvil/internal/workspace"
)

var ErrConfig = errors.New("workspace configuration error")

// Default directory names under the workspace root.
const (
	defaultSource   = "src"
	defaultBuild    = "build"
	defaultMetadata = "meta"
	defaultInstall  = "install"
)

// HCL shape of the configuration file.
type file struct {
	Workspace *workspaceBlock `hcl:"workspace,block"`
}

// HCL shape of the workspace block.
type workspaceBlock struct {
	Source         string            `hcl:"source,optional"`
	Build          string            `hcl:"build,optional"`
	Metadata       string            `hcl:"metadata,optional"`
	Install        string            `hcl:"install,optional"`
	IsolateInstall bool              `hcl:"isolate_install,optional"`
	ExtraArgs      []string          `hcl:"extra_args,optional"`
	Env            map[string]string `hcl:"env,optional"`
}

// Loads the workspace context for the given workspace root.
//
// Reads anvil.hcl from the root when present; a missing file yields the
// default layout. The returned context carries a snapshot of the current
// process environment.
func Load(workspaceDir string) (*workspace.Context, error) {
	root, err := filepath.Abs(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	var f file
	cfgPath := paths.ConfigFile(root)
	if _, err := os.Stat(cfgPath); err == nil {
		if err := hclsimple.DecodeFile(cfgPath, evalContext(), &f); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	ws := f.Workspace
	if ws == nil {
		ws = &workspaceBlock{}
	}

	return &workspace.Context{
		SourceSpace:    resolveDir(root, ws.Source, defaultSource),
		BuildSpace:     resolveDir(root, ws.Build, defaultBuild),
		MetadataSpace:  resolveDir(root, ws.Metadata, defaultMetadata),
		InstallSpace:   resolveDir(root, ws.Install, defaultInstall),
		IsolateInstall: ws.IsolateInstall,
		ExtraArgs:      ws.ExtraArgs,
		Env:            ws.Env,
		Environ:        os.Environ(),
	}, nil
}

// Resolves a configured directory against the workspace root, falling back
// to the default name when unset.
func resolveDir(root, dir, def string) string {
	if dir == "" {
		dir = def
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}

// Builds the expression evaluation context.
//
// Exposes the process environment as the env object so configuration
// values can reference variables like env.HOME.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, entry := range os.Environ() {
		if k, v, ok := strings.Cut(entry, "="); ok && k != "" {
			vars[k] = cty.StringVal(v)
		}
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}
