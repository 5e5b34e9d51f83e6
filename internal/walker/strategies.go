package walker

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Flat treats every immediate subdirectory of a root as a package and every
// file inside it as one version of that package. Files directly under a root
// only redirect to other modules and are ignored. The version is the file
// name as is; the parser strips the structured suffix.
type Flat struct{}

// Name implements Strategy.
func (Flat) Name() string { return "flat" }

// Walk implements Strategy.
func (Flat) Walk(w *Walker, root string, visit Visitor) error {
	for _, pkg := range w.readDir(root) {
		pkgName := pkg.Name()
		if Skip(pkgName) {
			continue
		}

		pkgDir := filepath.Join(root, pkgName)
		if w.isOtherRoot(pkgDir, root) {
			continue
		}
		if kind := classify(pkgDir, pkg); kind != kindDir && kind != kindLinkedDir {
			continue
		}

		for _, f := range w.readDir(pkgDir) {
			fileName := f.Name()
			if Skip(fileName) {
				continue
			}

			path := filepath.Join(pkgDir, fileName)
			if w.isOtherRoot(path, root) || classify(path, f) != kindFile {
				continue
			}

			err := visit(Candidate{
				Root:       root,
				Path:       path,
				Name:       pkgName,
				Version:    fileName,
				HasVersion: true,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Recursive descends a root and splits each file's root-relative path at the
// first separator: the head is the name, the rest the version.
type Recursive struct{}

// Name implements Strategy.
func (Recursive) Name() string { return "recursive" }

// Walk implements Strategy.
func (Recursive) Walk(w *Walker, root string, visit Visitor) error {
	return w.walkTree(root, func(root, dir, file string) (Candidate, bool) {
		rel := relSlash(root, filepath.Join(dir, file))
		name, version, found := strings.Cut(rel, "/")
		return Candidate{Name: name, Version: version, HasVersion: found}, true
	}, visit)
}

// Walk names files after their root-relative directory and uses the file name
// as version. Files directly under a root are named after themselves with the
// version "undefined", unless IgnoreToplevel is set.
//
// Every directory is named independently of its siblings, so in a mixed-depth
// tree /mp/a/1.0 yields (a, 1.0) and /mp/a/b/2.0 yields (a/b, 2.0).
type Walk struct {
	IgnoreToplevel bool
}

// Name implements Strategy.
func (s Walk) Name() string {
	if s.IgnoreToplevel {
		return "walk(ignore-toplevel)"
	}
	return "walk"
}

// Walk implements Strategy.
func (s Walk) Walk(w *Walker, root string, visit Visitor) error {
	return w.walkTree(root, func(root, dir, file string) (Candidate, bool) {
		if dir == root {
			if s.IgnoreToplevel {
				return Candidate{}, false
			}
			return Candidate{
				Name:       strings.TrimSuffix(file, StructuredSuffix),
				Version:    UndefinedVersion,
				HasVersion: true,
			}, true
		}
		return Candidate{Name: relSlash(root, dir), Version: file, HasVersion: true}, true
	}, visit)
}

// ParentDir names files after their immediate parent directory and uses the
// file name as version. Files directly under a root never produce candidates.
type ParentDir struct{}

// Name implements Strategy.
func (ParentDir) Name() string { return "walk(recurse-module-dirs)" }

// Walk implements Strategy.
func (ParentDir) Walk(w *Walker, root string, visit Visitor) error {
	return w.walkTree(root, func(root, dir, file string) (Candidate, bool) {
		if dir == root {
			return Candidate{}, false
		}
		return Candidate{Name: filepath.Base(dir), Version: file, HasVersion: true}, true
	}, visit)
}

// StrategyFor returns the strategy for a configured strategy name and walk options.
func StrategyFor(name string, recurseModuleDirs, ignoreToplevel bool) (Strategy, error) {
	switch name {
	case "flat":
		return Flat{}, nil
	case "recursive":
		return Recursive{}, nil
	case "walk", "":
		if recurseModuleDirs {
			return ParentDir{}, nil
		}
		return Walk{IgnoreToplevel: ignoreToplevel}, nil
	default:
		return nil, fmt.Errorf("unknown traversal strategy: %s", name)
	}
}
