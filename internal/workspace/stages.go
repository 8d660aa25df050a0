package workspace

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"

	"github.com/anvilworks/anvil/internal/paths"
)

// Creates a directory and any missing parents.
//
// Succeeds when the path already exists as a directory. A path that exists
// as anything else is an error.
func Makedirs(log *slog.Logger, path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("%w: %s exists and is not a directory", ErrFileSystem, path)
	}

	log.Debug("creating directory", "path", path)
	if err := os.MkdirAll(path, paths.DefaultDirMode); err != nil {
		return fmt.Errorf("%w: %w", ErrFileSystem, err)
	}
	return nil
}

// Copies each source file to the destination path.
//
// With a single source the destination is the target file name. With
// several sources the destination must be a directory and each file keeps
// its base name.
func CopyFiles(log *slog.Logger, sourcePaths []string, destPath string) error {
	for _, src := range sourcePaths {
		dest := destPath
		if len(sourcePaths) > 1 {
			dest = filepath.Join(destPath, filepath.Base(src))
		}
		log.Debug("copying file", "src", src, "dest", dest)
		if err := copyFile(src, dest); err != nil {
			return fmt.Errorf("%w: %w", ErrFileSystem, err)
		}
	}
	return nil
}

// Copies a single regular file, preserving its mode.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Finalizes a job environment against the workspace context.
//
// The context's environment overrides are merged on top of the ambient
// snapshot the planner seeded the job with. The map is mutated in place so
// later command stages observe the final values.
func LoadEnv(log *slog.Logger, jobEnv map[string]string, c *Context) error {
	if len(c.Env) > 0 {
		log.Debug("applying workspace environment overrides", "count", len(c.Env))
		maps.Copy(jobEnv, c.Env)
	}
	return nil
}

// Writes the shell-sourceable setup.sh at an install target.
//
// Sourcing the file puts the target's bin directory on PATH and its Python
// library directory on PYTHONPATH. pythonPath is the library directory
// relative to the target (e.g. "lib/python3.8/site-packages").
func GenerateSetupFile(log *slog.Logger, c *Context, installTarget, pythonPath string) error {
	script := fmt.Sprintf(`#!/usr/bin/env sh
# Generated by anvil. Source this file to use the install space.
export PATH="%[1]s/bin:$PATH"
export PYTHONPATH="%[1]s/%[2]s:$PYTHONPATH"
`, installTarget, pythonPath)

	path := filepath.Join(installTarget, "setup.sh")
	log.Debug("generating setup file", "path", path)
	if err := os.WriteFile(path, []byte(script), paths.DefaultScriptMode); err != nil {
		return fmt.Errorf("%w: %w", ErrFileSystem, err)
	}
	return nil
}

// Writes the env.sh wrapper at an install target.
//
// The wrapper sources setup.sh and then executes its arguments, so any
// command can be run inside the install target's environment.
func GenerateEnvFile(log *slog.Logger, c *Context, installTarget string) error {
	script := fmt.Sprintf(`#!/usr/bin/env sh
# Generated by anvil. Runs a command inside this install space.
. "%s/setup.sh"
exec "$@"
`, installTarget)

	path := filepath.Join(installTarget, "env.sh")
	log.Debug("generating env file", "path", path)
	if err := os.WriteFile(path, []byte(script), paths.DefaultScriptMode); err != nil {
		return fmt.Errorf("%w: %w", ErrFileSystem, err)
	}
	return nil
}
