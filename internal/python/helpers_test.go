package python

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStripCcache(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "leading ccache dropped",
			in:   "ccache gcc -O2",
			want: "gcc -O2",
		},
		{
			name: "identity when absent",
			in:   "gcc -O2",
			want: "gcc -O2",
		},
		{
			name: "ccache path dropped",
			in:   "/usr/lib/ccache/bin gcc",
			want: "gcc",
		},
		{
			name: "idempotent",
			in:   stripCcache("ccache gcc -O2"),
			want: "gcc -O2",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCcache(tt.in); got != tt.want {
				t.Fatalf("stripCcache(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRewriteShebang(t *testing.T) {
	newShebang := []byte("#!/opt/py/bin/python3")

	tests := []struct {
		name string
		in   string
		want string // "" means no rewrite
	}{
		{
			name: "direct unversioned",
			in:   "#!/usr/bin/python\nprint('hi')\n",
			want: "#!/opt/py/bin/python3\nprint('hi')\n",
		},
		{
			name: "direct versioned",
			in:   "#!/usr/bin/python3.9\nprint('hi')\n",
			want: "#!/opt/py/bin/python3\nprint('hi')\n",
		},
		{
			name: "direct with trailing space",
			in:   "#!/usr/bin/python -u\n",
			want: "#!/opt/py/bin/python3 -u\n",
		},
		{
			name: "direct at end of file",
			in:   "#!/usr/bin/python",
			want: "#!/opt/py/bin/python3",
		},
		{
			name: "env unversioned",
			in:   "#!/usr/bin/env python\nprint('hi')\n",
			want: "#!/opt/py/bin/python3\nprint('hi')\n",
		},
		{
			name: "env versioned left alone",
			in:   "#!/usr/bin/env python3\nprint('hi')\n",
			want: "",
		},
		{
			name: "unrelated interpreter left alone",
			in:   "#!/bin/sh\necho hi\n",
			want: "",
		},
		{
			name: "no shebang",
			in:   "print('hi')\n",
			want: "",
		},
		{
			name: "directive not at start",
			in:   "\n#!/usr/bin/python\n",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rewriteShebang([]byte(tt.in), newShebang)
			if tt.want == "" {
				if got != nil {
					t.Fatalf("rewriteShebang rewrote %q to %q, want no rewrite", tt.in, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("rewriteShebang(%q) = no rewrite, want %q", tt.in, tt.want)
			}
			if string(got) != tt.want {
				t.Fatalf("rewriteShebang(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFixShebangsIdempotent(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "tool.py")
	if err := os.WriteFile(script, []byte("#!/usr/bin/python\nprint('hi')\n"), 0755); err != nil {
		t.Fatal(err)
	}
	// Non-.py files are never touched.
	other := filepath.Join(dir, "tool.sh")
	if err := os.WriteFile(other, []byte("#!/usr/bin/python\n"), 0755); err != nil {
		t.Fatal(err)
	}

	log := discardLogger()
	if err := fixShebangs(log, dir, "/opt/py/bin/python3"); err != nil {
		t.Fatalf("fixShebangs: %v", err)
	}

	got, err := os.ReadFile(script)
	if err != nil {
		t.Fatal(err)
	}
	want := "#!/opt/py/bin/python3\nprint('hi')\n"
	if string(got) != want {
		t.Fatalf("after first pass = %q, want %q", got, want)
	}

	if err := fixShebangs(log, dir, "/opt/py/bin/python3"); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	got2, err := os.ReadFile(script)
	if err != nil {
		t.Fatal(err)
	}
	if string(got2) != want {
		t.Fatalf("second pass changed file to %q", got2)
	}

	untouched, err := os.ReadFile(other)
	if err != nil {
		t.Fatal(err)
	}
	if string(untouched) != "#!/usr/bin/python\n" {
		t.Fatalf("non-python file rewritten to %q", untouched)
	}
}

func TestRenamePathOverwritesDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dest := filepath.Join(dir, "dest")

	if err := os.MkdirAll(src, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "new.txt"), []byte("new"), 0644); err != nil {
		t.Fatal(err)
	}

	// Pre-existing destination with its own contents.
	if err := os.MkdirAll(dest, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, "old.txt"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	log := discardLogger()
	if err := renamePath(log, src, dest); err != nil {
		t.Fatalf("renamePath: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dest, "old.txt")); !os.IsNotExist(err) {
		t.Fatal("destination's prior contents survived the rename")
	}
	if _, err := os.Stat(filepath.Join(dest, "new.txt")); err != nil {
		t.Fatalf("source contents missing at destination: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source still exists after rename")
	}

	// Source is gone, so a second invocation fails.
	if err := renamePath(log, src, dest); err == nil {
		t.Fatal("second rename succeeded with no source")
	}
}

func TestRenamePathCreatesParents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dest := filepath.Join(dir, "a", "b", "dest")

	if err := os.MkdirAll(src, 0755); err != nil {
		t.Fatal(err)
	}

	if err := renamePath(discardLogger(), src, dest); err != nil {
		t.Fatalf("renamePath: %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
}

func TestFixInstallSpacePath(t *testing.T) {
	dir := t.TempDir()
	setup := filepath.Join(dir, "setup.sh")
	contents := "export PYTHONPATH=\"/ws/install/lib/python3.8/site-packages:$PYTHONPATH\"\n" +
		"export EXTRA=\"/ws/install/lib/python3.8/dist-packages\"\n"
	if err := os.WriteFile(setup, []byte(contents), 0755); err != nil {
		t.Fatal(err)
	}

	log := discardLogger()
	if err := fixInstallSpacePath(log, dir, "3.8", "3"); err != nil {
		t.Fatalf("fixInstallSpacePath: %v", err)
	}

	got, err := os.ReadFile(setup)
	if err != nil {
		t.Fatal(err)
	}
	want := "export PYTHONPATH=\"/ws/install/lib/python3/site-packages:$PYTHONPATH\"\n" +
		"export EXTRA=\"/ws/install/lib/python3/dist-packages\"\n"
	if string(got) != want {
		t.Fatalf("patched setup.sh = %q, want %q", got, want)
	}

	// Already patched: no occurrence left, file stays as-is.
	before, err := os.Stat(setup)
	if err != nil {
		t.Fatal(err)
	}
	if err := fixInstallSpacePath(log, dir, "3.8", "3"); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	after, err := os.Stat(setup)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Fatal("file rewritten although nothing matched")
	}
}

func TestFixInstallSpacePathMissingFile(t *testing.T) {
	if err := fixInstallSpacePath(discardLogger(), t.TempDir(), "3.8", "3"); err != nil {
		t.Fatalf("missing setup.sh should be success, got %v", err)
	}
}
