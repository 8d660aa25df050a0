// Package python plans build jobs for plain Python packages.
//
// A plain Python package is a source tree with a package.xml manifest and a
// setup.py build description, installed via the interpreter's own build and
// install machinery rather than a full build system. The planner inspects
// the package once, at build-graph construction time, and emits a static
// ordered list of stages: create the metadata directory, cache the
// manifest, run setup.py build+install into the package's private build
// space, rsync the result into the install space, then repair interpreter
// directives and generated environment files. The host executor runs the
// stages later; nothing is executed during planning except the interpreter
// version probe.
//
// The interpreter is resolved once per job, from a PYTHON_EXECUTABLE extra
// argument or the PYTHON environment variable, and the same resolved value
// is threaded through every stage that references it.
//
// Example usage:
//
//	j, err := python.NewBuildJob(ctx, wctx, pkg, registry.BuildOptions{})
//	if err != nil {
//	    return err
//	}
//	if err := runner.Run(ctx, j); err != nil {
//	    return err
//	}
package python
