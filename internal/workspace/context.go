package workspace

import "path/filepath"

// Read-only build configuration for one workspace.
//
// All directory fields are absolute. The planner reads the context to
// resolve per-package paths and to decide stage parameters; it never
// writes through it.
type Context struct {
	SourceSpace   string // Directory containing package source trees.
	BuildSpace    string // Root for per-package private build directories.
	MetadataSpace string // Root for per-package metadata directories.
	InstallSpace  string // Shared tree where install outputs are aggregated.

	// Whether each package installs into its own subdirectory of the
	// install space instead of the shared root. Changes the locking
	// requirements of stages that write there.
	IsolateInstall bool

	ExtraArgs []string          // Extra build-tool arguments (e.g. "PYTHON_EXECUTABLE=/usr/bin/python3").
	Env       map[string]string // Workspace environment overrides, applied by LoadEnv.
	Environ   []string          // Ambient process environment snapshot.
}

// Returns the absolute source directory of a package.
func (c *Context) PackageSource(p *Package) string {
	return filepath.Join(c.SourceSpace, p.Path)
}

// Returns the package's private build directory.
func (c *Context) PackageBuild(p *Package) string {
	return filepath.Join(c.BuildSpace, p.Name)
}

// Returns the package's private metadata directory.
func (c *Context) PackageMetadata(p *Package) string {
	return filepath.Join(c.MetadataSpace, p.Name)
}

// Returns the directory a package's build output is installed into.
//
// With isolated installs each package gets its own subdirectory of the
// install space; otherwise all packages share the install space root.
func (c *Context) PackageDest(p *Package) string {
	if c.IsolateInstall {
		return filepath.Join(c.InstallSpace, p.Name)
	}
	return c.InstallSpace
}

// Returns the directory a package's install output finally lives in.
//
// This workspace model has no linked or staged install layout, so the
// final path is the destination path.
func (c *Context) PackageFinal(p *Package) string {
	return c.PackageDest(p)
}
