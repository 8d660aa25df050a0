package workspace

import (
	"encoding/xml"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// File name of the package manifest inside a package source directory.
const ManifestName = "package.xml"

// One buildable package discovered in the source space.
type Package struct {
	Name    string   // Package name from the manifest.
	Path    string   // Source directory, relative to the source space.
	Depends []string // Declared dependency names, sorted and deduplicated.
}

// XML shape of a package manifest. Only the fields the planner needs are
// decoded; everything else in the manifest is ignored.
type manifest struct {
	XMLName       xml.Name `xml:"package"`
	Name          string   `xml:"name"`
	Depends       []string `xml:"depend"`
	BuildDepends  []string `xml:"build_depend"`
	RunDepends    []string `xml:"run_depend"`
	ExportDepends []string `xml:"exec_depend"`
}

// Reads a package manifest file and returns the package it describes.
//
// The path argument points at the manifest file itself; the returned
// package's Path is the manifest's directory relative to sourceSpace.
func LoadManifest(sourceSpace, path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifest, err)
	}

	var m manifest
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrManifest, path, err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("%w: %s: missing package name", ErrManifest, path)
	}

	rel, err := filepath.Rel(sourceSpace, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifest, err)
	}

	return &Package{
		Name:    m.Name,
		Path:    rel,
		Depends: mergeDepends(m.Depends, m.BuildDepends, m.RunDepends, m.ExportDepends),
	}, nil
}

// Walks the source space and returns every package with a manifest.
//
// Once a manifest is found its directory is not descended further, so
// nested source trees inside a package are not misread as packages.
func Scan(sourceSpace string) ([]*Package, error) {
	var pkgs []*Package

	err := filepath.WalkDir(sourceSpace, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			manifestPath := filepath.Join(path, ManifestName)
			if _, statErr := os.Stat(manifestPath); statErr == nil {
				pkg, loadErr := LoadManifest(sourceSpace, manifestPath)
				if loadErr != nil {
					return loadErr
				}
				pkgs = append(pkgs, pkg)
				return filepath.SkipDir
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(pkgs, func(a, b *Package) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return pkgs, nil
}

// Merges dependency lists into one sorted, deduplicated slice.
func mergeDepends(lists ...[]string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, list := range lists {
		for _, dep := range list {
			if dep == "" || seen[dep] {
				continue
			}
			seen[dep] = true
			merged = append(merged, dep)
		}
	}
	slices.Sort(merged)
	return merged
}
