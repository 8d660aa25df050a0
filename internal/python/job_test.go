package python

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/anvilworks/anvil/internal/job"
	"github.com/anvilworks/anvil/internal/registry"
	"github.com/anvilworks/anvil/internal/workspace"
)

const setuptoolsSetupPy = "from setuptools import setup\n\nsetup(name='demo')\n"
const distutilsSetupPy = "from distutils.core import setup\n\nsetup(name='demo')\n"

// Creates a workspace with one package whose setup.py has the given
// contents, and returns the context and package descriptor.
func testWorkspace(t *testing.T, setupPy string) (*workspace.Context, *workspace.Package) {
	t.Helper()

	root := t.TempDir()
	pkgDir := filepath.Join(root, "src", "demo")
	if err := os.MkdirAll(pkgDir, 0755); err != nil {
		t.Fatal(err)
	}
	if setupPy != "" {
		if err := os.WriteFile(filepath.Join(pkgDir, "setup.py"), []byte(setupPy), 0644); err != nil {
			t.Fatal(err)
		}
	}

	wctx := &workspace.Context{
		SourceSpace:   filepath.Join(root, "src"),
		BuildSpace:    filepath.Join(root, "build"),
		MetadataSpace: filepath.Join(root, "meta"),
		InstallSpace:  filepath.Join(root, "install"),
		Environ:       []string{"PATH=/usr/bin"},
	}
	pkg := &workspace.Package{Name: "demo", Path: "demo", Depends: []string{"base"}}
	return wctx, pkg
}

func stageNames(j *job.Job) []string {
	names := make([]string, 0, len(j.Stages))
	for _, st := range j.Stages {
		names = append(names, st.StageName())
	}
	return names
}

func findStage(t *testing.T, j *job.Job, name string) job.Stage {
	t.Helper()
	for _, st := range j.Stages {
		if st.StageName() == name {
			return st
		}
	}
	t.Fatalf("stage %q not in plan %v", name, stageNames(j))
	return nil
}

func TestPlanStageOrder(t *testing.T) {
	wctx, pkg := testWorkspace(t, setuptoolsSetupPy)
	interp := Interpreter{Exec: "/usr/bin/python3", Major: 3, Minor: 8}

	j, err := planBuildJob(wctx, pkg, interp, "lib/python3.8/site-packages", "/usr/bin/rsync")
	if err != nil {
		t.Fatalf("planBuildJob: %v", err)
	}

	want := []string{
		"loadenv",
		"mkdir",
		"cache-manifest",
		"python",
		"mkdir-install",
		"install",
		"fix-shebang",
		"setupgen",
		"envgen",
		"fix_python3_install_space",
	}
	if diff := cmp.Diff(want, stageNames(j)); diff != "" {
		t.Fatalf("stage order mismatch (-want +got):\n%s", diff)
	}

	if j.ID != "demo" {
		t.Fatalf("job ID = %q, want demo", j.ID)
	}
	if diff := cmp.Diff([]string{"base"}, j.Deps); diff != "" {
		t.Fatalf("job deps mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanPython2(t *testing.T) {
	wctx, pkg := testWorkspace(t, setuptoolsSetupPy)
	interp := Interpreter{Exec: "/usr/bin/python2", Major: 2, Minor: 7}

	j, err := planBuildJob(wctx, pkg, interp, "lib/python2.7/dist-packages", "/usr/bin/rsync")
	if err != nil {
		t.Fatalf("planBuildJob: %v", err)
	}

	for _, name := range stageNames(j) {
		if name == "fix_python3_install_space" {
			t.Fatal("python 2 plan contains fix_python3_install_space")
		}
	}

	// The rename stage exists but does not collapse the minor version.
	fix := findStage(t, j, "debian-fix").(*job.FunctionStage)
	if !strings.HasSuffix(fix.Args["source_path"], filepath.Join("lib", "python2.7", "site-packages")) {
		t.Fatalf("debian-fix source = %q", fix.Args["source_path"])
	}
	if !strings.HasSuffix(fix.Args["dest_path"], filepath.Join("lib", "python2.7", "dist-packages")) {
		t.Fatalf("debian-fix dest = %q", fix.Args["dest_path"])
	}
}

func TestPlanDebianCollapse(t *testing.T) {
	wctx, pkg := testWorkspace(t, setuptoolsSetupPy)
	interp := Interpreter{Exec: "/usr/bin/python3", Major: 3, Minor: 8}

	j, err := planBuildJob(wctx, pkg, interp, "lib/python3.8/dist-packages", "/usr/bin/rsync")
	if err != nil {
		t.Fatalf("planBuildJob: %v", err)
	}

	fix := findStage(t, j, "debian-fix").(*job.FunctionStage)
	if !strings.HasSuffix(fix.Args["source_path"], filepath.Join("lib", "python3.8", "site-packages")) {
		t.Fatalf("debian-fix source = %q", fix.Args["source_path"])
	}
	if !strings.HasSuffix(fix.Args["dest_path"], filepath.Join("lib", "python3", "dist-packages")) {
		t.Fatalf("debian-fix dest = %q, want major-only segment", fix.Args["dest_path"])
	}

	count := 0
	for _, name := range stageNames(j) {
		if name == "fix_python3_install_space" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("fix_python3_install_space appears %d times, want 1", count)
	}
}

func TestPlanNoDebianFixWithoutDistPackages(t *testing.T) {
	wctx, pkg := testWorkspace(t, setuptoolsSetupPy)
	interp := Interpreter{Exec: "/usr/bin/python3", Major: 3, Minor: 8}

	j, err := planBuildJob(wctx, pkg, interp, "lib/python3.8/site-packages", "/usr/bin/rsync")
	if err != nil {
		t.Fatalf("planBuildJob: %v", err)
	}

	for _, name := range stageNames(j) {
		if name == "debian-fix" {
			t.Fatal("debian-fix planned for a site-packages platform")
		}
	}
}

func TestPlanSvemFlag(t *testing.T) {
	tests := []struct {
		name    string
		setupPy string
		want    bool
	}{
		{name: "from setuptools", setupPy: setuptoolsSetupPy, want: true},
		{name: "import setuptools", setupPy: "import setuptools\nsetuptools.setup(name='demo')\n", want: true},
		{name: "bare distutils", setupPy: distutilsSetupPy, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wctx, pkg := testWorkspace(t, tt.setupPy)
			interp := Interpreter{Exec: "/usr/bin/python3", Major: 3, Minor: 8}

			j, err := planBuildJob(wctx, pkg, interp, "lib/python3.8/site-packages", "/usr/bin/rsync")
			if err != nil {
				t.Fatalf("planBuildJob: %v", err)
			}

			cmd := findStage(t, j, "python").(*job.CommandStage)
			got := false
			for _, arg := range cmd.Argv {
				if arg == "--single-version-externally-managed" {
					got = true
				}
			}
			if got != tt.want {
				t.Fatalf("svem flag present = %v, want %v\nargv: %v", got, tt.want, cmd.Argv)
			}
		})
	}
}

func TestPlanPythonCommand(t *testing.T) {
	wctx, pkg := testWorkspace(t, distutilsSetupPy)
	interp := Interpreter{Exec: "/opt/py/bin/python3", Major: 3, Minor: 11}

	j, err := planBuildJob(wctx, pkg, interp, "lib/python3.11/site-packages", "/usr/bin/rsync")
	if err != nil {
		t.Fatalf("planBuildJob: %v", err)
	}

	cmd := findStage(t, j, "python").(*job.CommandStage)
	buildSpace := wctx.PackageBuild(pkg)
	want := []string{
		"/opt/py/bin/python3", "setup.py",
		"build", "--build-base", buildSpace,
		"install",
		"--root", buildSpace,
		"--prefix", "install",
	}
	if diff := cmp.Diff(want, cmd.Argv); diff != "" {
		t.Fatalf("python argv mismatch (-want +got):\n%s", diff)
	}
	if cmd.Dir != wctx.PackageSource(pkg) {
		t.Fatalf("python cwd = %q, want %q", cmd.Dir, wctx.PackageSource(pkg))
	}

	install := findStage(t, j, "install").(*job.CommandStage)
	wantInstall := []string{
		"/usr/bin/rsync", "-a",
		filepath.Join(buildSpace, "install") + string(os.PathSeparator),
		wctx.PackageDest(pkg),
	}
	if diff := cmp.Diff(wantInstall, install.Argv); diff != "" {
		t.Fatalf("install argv mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanLocks(t *testing.T) {
	wctx, pkg := testWorkspace(t, setuptoolsSetupPy)
	interp := Interpreter{Exec: "/usr/bin/python3", Major: 3, Minor: 8}

	j, err := planBuildJob(wctx, pkg, interp, "lib/python3.8/site-packages", "/usr/bin/rsync")
	if err != nil {
		t.Fatalf("planBuildJob: %v", err)
	}

	wantLocks := map[string]string{
		"loadenv":                   job.LockInstallSpace,
		"mkdir":                     "",
		"cache-manifest":            "",
		"python":                    "",
		"mkdir-install":             "",
		"install":                   job.LockInstallSpace,
		"fix-shebang":               job.LockInstallSpace,
		"setupgen":                  "",
		"envgen":                    "",
		"fix_python3_install_space": job.LockInstallSpace,
	}
	for _, st := range j.Stages {
		if got := st.LockedResource(); got != wantLocks[st.StageName()] {
			t.Errorf("stage %s lock = %q, want %q", st.StageName(), got, wantLocks[st.StageName()])
		}
	}
}

func TestPlanLocksIsolatedInstall(t *testing.T) {
	wctx, pkg := testWorkspace(t, setuptoolsSetupPy)
	wctx.IsolateInstall = true
	interp := Interpreter{Exec: "/usr/bin/python3", Major: 3, Minor: 8}

	j, err := planBuildJob(wctx, pkg, interp, "lib/python3.8/site-packages", "/usr/bin/rsync")
	if err != nil {
		t.Fatalf("planBuildJob: %v", err)
	}

	fix := findStage(t, j, "fix-shebang")
	if fix.LockedResource() != "" {
		t.Fatalf("fix-shebang lock = %q, want none with isolated installs", fix.LockedResource())
	}

	// Isolation changes only that one stage's locking.
	install := findStage(t, j, "install")
	if install.LockedResource() != job.LockInstallSpace {
		t.Fatalf("install lock = %q, want %q", install.LockedResource(), job.LockInstallSpace)
	}
}

func TestPlanMissingSetupPy(t *testing.T) {
	wctx, pkg := testWorkspace(t, "")
	interp := Interpreter{Exec: "/usr/bin/python3", Major: 3, Minor: 8}

	_, err := planBuildJob(wctx, pkg, interp, "lib/python3.8/site-packages", "/usr/bin/rsync")
	if !errors.Is(err, ErrSetupFile) {
		t.Fatalf("err = %v, want ErrSetupFile", err)
	}
}

func TestBuildJobEnv(t *testing.T) {
	env := buildJobEnv([]string{
		"CC=ccache gcc",
		"CXX=ccache g++ -std=c++17",
		"PATH=/usr/bin",
		"MALFORMED",
	})

	if env["CC"] != "gcc" {
		t.Fatalf("CC = %q, want gcc", env["CC"])
	}
	if env["CXX"] != "g++ -std=c++17" {
		t.Fatalf("CXX = %q, want g++ -std=c++17", env["CXX"])
	}
	if env["PATH"] != "/usr/bin" {
		t.Fatalf("PATH = %q, want /usr/bin", env["PATH"])
	}
	if _, ok := env["MALFORMED"]; ok {
		t.Fatal("malformed environ entry kept")
	}
}

func TestNewCleanJobEmpty(t *testing.T) {
	wctx, pkg := testWorkspace(t, setuptoolsSetupPy)

	j, err := NewCleanJob(context.Background(), wctx, pkg, registry.CleanOptions{})
	if err != nil {
		t.Fatalf("NewCleanJob: %v", err)
	}
	if len(j.Stages) != 0 {
		t.Fatalf("clean job has %d stages, want 0", len(j.Stages))
	}
	if j.ID != "demo" {
		t.Fatalf("clean job ID = %q, want demo", j.ID)
	}
}
