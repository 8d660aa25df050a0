package python

import (
	"bytes"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/anvilworks/anvil/internal/paths"
)

// Interpreter directive patterns. Both anchor on a whitespace character or
// end-of-input after the interpreter name, and the env form matches only
// the unversioned runtime name. Deliberately narrow: broader matching
// could rewrite files these stages have no business touching.
var (
	shebangDirect       = regexp.MustCompile(`^#!/usr/bin/python[0-9.]*(\s|$)`)
	shebangDirectPrefix = regexp.MustCompile(`^#!/usr/bin/python[0-9.]*`)
	shebangEnv          = regexp.MustCompile(`^#!/usr/bin/env python(\s|$)`)
)

// Moves a file or directory, overwriting the destination if present.
//
// An existing destination is removed recursively first, and missing parent
// directories of the destination are created.
func renamePath(log *slog.Logger, sourcePath, destPath string) error {
	if _, err := os.Lstat(destPath); err == nil {
		log.Debug("removing existing destination", "path", destPath)
		if err := os.RemoveAll(destPath); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), paths.DefaultDirMode); err != nil {
		return err
	}

	log.Debug("renaming", "src", sourcePath, "dest", destPath)
	return os.Rename(sourcePath, destPath)
}

// Rewrites interpreter directives under pkgDir to point at pythonExec.
//
// Every .py file whose bytes begin with a direct-path directive (any
// /usr/bin/python variant) or the unversioned env-lookup directive gets the
// matched directive replaced with "#!<pythonExec>". Files are written back
// only when the rewrite changed something, so a second pass is a no-op.
func fixShebangs(log *slog.Logger, pkgDir, pythonExec string) error {
	newShebang := []byte("#!" + pythonExec)

	return filepath.WalkDir(pkgDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".py") {
			return nil
		}

		contents, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		fixed := rewriteShebang(contents, newShebang)
		if fixed == nil {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		log.Debug("rewriting interpreter directive", "file", path, "python", pythonExec)
		return os.WriteFile(path, fixed, info.Mode().Perm())
	})
}

// Returns the contents with the leading interpreter directive replaced, or
// nil when nothing matched or the rewrite is a byte-for-byte no-op.
func rewriteShebang(contents, newShebang []byte) []byte {
	var fixed []byte

	switch {
	case shebangDirect.Match(contents):
		prefix := shebangDirectPrefix.Find(contents)
		fixed = append(append([]byte{}, newShebang...), contents[len(prefix):]...)
	case shebangEnv.Match(contents):
		fixed = bytes.Replace(contents, []byte("#!/usr/bin/env python"), newShebang, 1)
	default:
		return nil
	}

	if bytes.Equal(fixed, contents) {
		return nil
	}
	return fixed
}

// Patches the generated setup.sh so its library path names the interpreter
// by newPython instead of oldPython (e.g. "3.8" becomes "3").
//
// The install machinery writes paths for the full major.minor version, but
// on platforms that lay Python 3 libraries out under the major-only
// directory the generated PYTHONPATH would point at nothing. A missing
// setup.sh is success: not every package generates one.
func fixInstallSpacePath(log *slog.Logger, installSpace, oldPython, newPython string) error {
	path := filepath.Join(installSpace, "setup.sh")

	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	oldPath := []byte("/lib/python" + oldPython)
	newPath := []byte("/lib/python" + newPython)

	fixed := bytes.ReplaceAll(contents, oldPath, newPath)
	if bytes.Equal(fixed, contents) {
		return nil
	}

	log.Debug("patching library path", "file", path, "old", string(oldPath), "new", string(newPath))
	return os.WriteFile(path, fixed, paths.DefaultScriptMode)
}

// Drops any build-cache wrapper tokens from a compiler invocation string.
//
// Some packages (notably matplotlib) misbehave when built through ccache,
// so it is stripped from CC and CXX before the job environment is sealed.
// Remaining tokens keep their order, joined by single spaces.
func stripCcache(cmd string) string {
	var kept []string
	for _, part := range strings.Fields(cmd) {
		if strings.Contains(part, "ccache") {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, " ")
}
