package python

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/anvilworks/anvil/internal/events"
	"github.com/anvilworks/anvil/internal/job"
	"github.com/anvilworks/anvil/internal/registry"
	"github.com/anvilworks/anvil/internal/workspace"
)

// Matches a setup.py that uses setuptools rather than bare distutils.
//
// Only setuptools-based packages accept --single-version-externally-managed;
// some old distutils packages (notably pyyaml) reject it. Sniffing the file
// text is cheap; the thorough alternative of running "setup.py --help" would
// cost a subprocess per package at graph construction time.
var setuptoolsImport = regexp.MustCompile(`(from|import) setuptools`)

// Name of the external bulk-copy executable used by the install stage.
const rsyncName = "rsync"

// Returns the build type descriptor for plain Python packages.
func BuildType() *registry.BuildType {
	return &registry.BuildType{
		Name:        "python",
		Description: "Builds a plain Python package with setup.py and stages it into the install space.",
		NewBuildJob: NewBuildJob,
		NewCleanJob: NewCleanJob,
	}
}

// Plans the build job for one plain Python package.
//
// Resolves and probes the interpreter, detects the platform's library
// install convention, then emits the static stage list. The only work done
// here is planning; every stage runs later, under the executor. An
// unreadable setup.py or a failed interpreter probe aborts planning with
// an error and no job.
func NewBuildJob(ctx context.Context, wctx *workspace.Context, pkg *workspace.Package, opts registry.BuildOptions) (*job.Job, error) {
	interp, err := resolveInterpreter(ctx, wctx.ExtraArgs, os.LookupEnv, runCommand)
	if err != nil {
		return nil, err
	}

	rsyncExec, err := exec.LookPath(rsyncName)
	if err != nil {
		// Leave resolution to the executor's PATH; the install stage will
		// fail there if rsync is genuinely absent.
		rsyncExec = rsyncName
	}

	return planBuildJob(wctx, pkg, interp, installDir(ctx, interp, runCommand), rsyncExec)
}

// Plans the build job from fully resolved inputs.
//
// Deterministic given its arguments and the package's setup.py contents:
// no subprocess is spawned and no ambient state is read, so tests can
// inspect the emitted plan directly.
func planBuildJob(wctx *workspace.Context, pkg *workspace.Package, interp Interpreter, pythonInstallDir, rsyncExec string) (*job.Job, error) {
	pkgDir := wctx.PackageSource(pkg)
	buildSpace := wctx.PackageBuild(pkg)
	metadataPath := wctx.PackageMetadata(pkg)
	destPath := wctx.PackageDest(pkg)

	jobEnv := buildJobEnv(wctx.Environ)

	var stages []job.Stage

	// Load environment for the job.
	stages = append(stages, &job.FunctionStage{
		Name: "loadenv",
		Fn: func(ctx context.Context, log *slog.Logger, q *events.Queue) error {
			return workspace.LoadEnv(log, jobEnv, wctx)
		},
		Args: map[string]string{"package": pkg.Name},
		Lock: job.LockInstallSpace,
	})

	// Create the package metadata dir.
	stages = append(stages, &job.FunctionStage{
		Name: "mkdir",
		Fn: func(ctx context.Context, log *slog.Logger, q *events.Queue) error {
			return workspace.Makedirs(log, metadataPath)
		},
		Args: map[string]string{"path": metadataPath},
	})

	// Cache the source manifest.
	manifestSrc := filepath.Join(pkgDir, workspace.ManifestName)
	manifestDest := filepath.Join(metadataPath, workspace.ManifestName)
	stages = append(stages, &job.FunctionStage{
		Name: "cache-manifest",
		Fn: func(ctx context.Context, log *slog.Logger, q *events.Queue) error {
			return workspace.CopyFiles(log, []string{manifestSrc}, manifestDest)
		},
		Args: map[string]string{"source_path": manifestSrc, "dest_path": manifestDest},
	})

	setupPath := filepath.Join(pkgDir, "setup.py")
	setupContents, err := os.ReadFile(setupPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSetupFile, err)
	}
	svemSupported := setuptoolsImport.Match(setupContents)

	// Build and install into the package's private build space.
	argv := []string{
		interp.Exec, "setup.py",
		"build", "--build-base", buildSpace,
		"install",
		"--root", buildSpace,
		"--prefix", "install",
	}
	if svemSupported {
		argv = append(argv, "--single-version-externally-managed")
	}
	stages = append(stages, &job.CommandStage{
		Name: "python",
		Argv: argv,
		Dir:  pkgDir,
	})

	// Special path rename required only where the platform lays libraries
	// out under dist-packages. setup.py always produces the site-packages
	// variant; move it to where the platform expects it.
	if strings.Contains(pythonInstallDir, "dist-packages") {
		siteDir := strings.ReplaceAll(pythonInstallDir, "dist-packages", "site-packages")
		if interp.Major == 3 {
			versioned := fmt.Sprintf("python%d.%d", interp.Major, interp.Minor)
			pythonInstallDir = strings.ReplaceAll(pythonInstallDir, versioned, fmt.Sprintf("python%d", interp.Major))
		}

		renameSrc := filepath.Join(buildSpace, "install", siteDir)
		renameDest := filepath.Join(buildSpace, "install", pythonInstallDir)
		stages = append(stages, &job.FunctionStage{
			Name: "debian-fix",
			Fn: func(ctx context.Context, log *slog.Logger, q *events.Queue) error {
				return renamePath(log, renameSrc, renameDest)
			},
			Args: map[string]string{"source_path": renameSrc, "dest_path": renameDest},
		})
	}

	// Create the package install space.
	stages = append(stages, &job.FunctionStage{
		Name: "mkdir-install",
		Fn: func(ctx context.Context, log *slog.Logger, q *events.Queue) error {
			return workspace.Makedirs(log, destPath)
		},
		Args: map[string]string{"path": destPath},
	})

	// Bulk-copy from the build space into the install space. Despite the
	// extra process, rsync is much faster than copying file by file.
	stages = append(stages, &job.CommandStage{
		Name: "install",
		Argv: []string{rsyncExec, "-a", filepath.Join(buildSpace, "install") + string(os.PathSeparator), destPath},
		Dir:  pkgDir,
		Lock: job.LockInstallSpace,
	})

	// Repoint interpreter directives at the resolved interpreter. With
	// isolated installs no other job can touch this path, so no cross-job
	// lock is needed.
	shebangLock := job.LockInstallSpace
	if wctx.IsolateInstall {
		shebangLock = ""
	}
	stages = append(stages, &job.FunctionStage{
		Name: "fix-shebang",
		Fn: func(ctx context.Context, log *slog.Logger, q *events.Queue) error {
			return fixShebangs(log, destPath, interp.Exec)
		},
		Args: map[string]string{"pkg_dir": destPath, "python_exec": interp.Exec},
		Lock: shebangLock,
	})

	// Generate the shell-sourceable setup and environment files.
	pythonPath := pythonInstallDir
	stages = append(stages, &job.FunctionStage{
		Name: "setupgen",
		Fn: func(ctx context.Context, log *slog.Logger, q *events.Queue) error {
			return workspace.GenerateSetupFile(log, wctx, destPath, pythonPath)
		},
		Args: map[string]string{"install_target": destPath},
	})
	stages = append(stages, &job.FunctionStage{
		Name: "envgen",
		Fn: func(ctx context.Context, log *slog.Logger, q *events.Queue) error {
			return workspace.GenerateEnvFile(log, wctx, destPath)
		},
		Args: map[string]string{"install_target": destPath},
	})

	// The generated setup.sh embeds the full major.minor library path, but
	// Python 3 installs land under the major-only directory.
	if interp.Major == 3 {
		oldPython := interp.Version()
		newPython := strconv.Itoa(interp.Major)
		stages = append(stages, &job.FunctionStage{
			Name: "fix_python3_install_space",
			Fn: func(ctx context.Context, log *slog.Logger, q *events.Queue) error {
				return fixInstallSpacePath(log, destPath, oldPython, newPython)
			},
			Args: map[string]string{"install_space": destPath, "old_python": oldPython, "new_python": newPython},
			Lock: job.LockInstallSpace,
		})
	}

	return &job.Job{
		ID:     pkg.Name,
		Deps:   pkg.Depends,
		Env:    jobEnv,
		Stages: stages,
	}, nil
}

// Plans the clean job for one plain Python package.
//
// Plain Python packages leave nothing behind that the workspace-level
// clean does not already cover, so the job carries no stages.
func NewCleanJob(ctx context.Context, wctx *workspace.Context, pkg *workspace.Package, opts registry.CleanOptions) (*job.Job, error) {
	return &job.Job{
		ID:   pkg.Name,
		Deps: pkg.Depends,
		Env:  map[string]string{},
	}, nil
}

// Builds the job environment from the ambient snapshot, stripping any
// build-cache wrapper from the compiler entries.
func buildJobEnv(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, entry := range environ {
		if k, v, ok := strings.Cut(entry, "="); ok {
			env[k] = v
		}
	}

	if cc, ok := env["CC"]; ok {
		env["CC"] = stripCcache(cc)
	}
	if cxx, ok := env["CXX"]; ok {
		env["CXX"] = stripCcache(cxx)
	}

	return env
}
