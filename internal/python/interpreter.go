package python

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Interpreter used when neither an extra argument nor the PYTHON
// environment variable selects one.
const defaultExec = "python3"

// One-line script the resolved interpreter is probed with to report its
// major and minor version.
const versionProbe = `import sys; print("%d.%d" % sys.version_info[:2])`

// The Python toolchain a job builds with, resolved once per plan.
//
// The same value is threaded through every stage that references the
// interpreter; planning never consults process-wide state after resolution.
type Interpreter struct {
	Exec  string // Interpreter executable path or name.
	Major int    // Major version from the probe.
	Minor int    // Minor version from the probe.
}

// Returns the "major.minor" version string.
func (i Interpreter) Version() string {
	return fmt.Sprintf("%d.%d", i.Major, i.Minor)
}

// Runs a command and returns its standard output. Injected into resolution
// so planner tests never spawn a real interpreter.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Runs a command via os/exec.
func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Resolves the interpreter executable and probes it for its version.
//
// An extra argument containing PYTHON_EXECUTABLE wins (both the bare
// "PYTHON_EXECUTABLE=<path>" and the "-DPYTHON_EXECUTABLE=<path>"
// spellings), then the PYTHON environment variable, then the default.
// A probe that fails to spawn or produces unparsable output is fatal.
func resolveInterpreter(ctx context.Context, extraArgs []string, lookupEnv func(string) (string, bool), run runFunc) (Interpreter, error) {
	exe := resolveExec(extraArgs, lookupEnv)

	out, err := run(ctx, exe, "-c", versionProbe)
	if err != nil {
		return Interpreter{}, fmt.Errorf("%w: %s: %w", ErrInterpreter, exe, err)
	}

	major, minor, err := parseVersion(out)
	if err != nil {
		return Interpreter{}, fmt.Errorf("%w: %s: %w", ErrInterpreter, exe, err)
	}

	return Interpreter{Exec: exe, Major: major, Minor: minor}, nil
}

// Picks the interpreter executable from the extra arguments, the
// environment, or the default, in that order.
func resolveExec(extraArgs []string, lookupEnv func(string) (string, bool)) string {
	for _, arg := range extraArgs {
		if !strings.Contains(arg, "PYTHON_EXECUTABLE") {
			continue
		}
		if _, value, ok := strings.Cut(arg, "="); ok && value != "" {
			return value
		}
	}

	if value, ok := lookupEnv("PYTHON"); ok && value != "" {
		return value
	}

	return defaultExec
}

// Parses "major.minor" probe output.
func parseVersion(out []byte) (major, minor int, err error) {
	s := strings.TrimSpace(string(out))

	majorStr, minorStr, ok := strings.Cut(s, ".")
	if !ok {
		return 0, 0, fmt.Errorf("unexpected version output %q", s)
	}

	major, err = strconv.Atoi(majorStr)
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected version output %q", s)
	}
	minor, err = strconv.Atoi(minorStr)
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected version output %q", s)
	}

	return major, minor, nil
}
