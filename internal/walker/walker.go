// Package walker enumerates candidate module files under configured module roots.
//
// A Walker owns the rules every traversal shares: hidden ("." prefixed) and
// backup ("~" suffixed) entries are skipped, another configured root is never
// entered, and unreadable directories are treated as empty. A Strategy only
// decides how a file's position below its root maps to a package name and
// version.
package walker

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// StructuredSuffix marks module files written in the structured (Lua) dialect.
const StructuredSuffix = ".lua"

// UndefinedVersion is the version given to files directly under a root by the walk strategy.
const UndefinedVersion = "undefined"

// Candidate is a leaf file plus the name and version derived from its position.
type Candidate struct {
	Root       string // Root the file was found under
	Path       string // Absolute path of the file
	Name       string // Derived package name
	Version    string // Derived version, may carry the structured suffix
	HasVersion bool   // False when the position yields no version at all
}

// Visitor is called once per candidate in traversal order.
// A non-nil error stops the traversal and is returned by Walk.
type Visitor func(Candidate) error

// Strategy derives candidates from one root.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string

	// Walk visits every candidate below root.
	Walk(w *Walker, root string, visit Visitor) error
}

// Walker traverses a set of roots with one strategy.
type Walker struct {
	roots    []string
	rootSet  map[string]bool
	strategy Strategy
	logger   *log.Logger
}

// New creates a walker over roots. Roots must already be absolute and
// symlink-free so that the other-root check compares like with like.
func New(roots []string, strategy Strategy, logger *log.Logger) *Walker {
	rootSet := make(map[string]bool, len(roots))
	for _, r := range roots {
		rootSet[filepath.Clean(r)] = true
	}
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "walker"})
	}
	return &Walker{
		roots:    roots,
		rootSet:  rootSet,
		strategy: strategy,
		logger:   logger,
	}
}

// Walk visits the candidates of every root in order. The context is checked
// between roots only; a root that has started is walked to the end.
func (w *Walker) Walk(ctx context.Context, visit Visitor) error {
	for _, root := range w.roots {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.WalkRoot(root, visit); err != nil {
			return fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}
	return nil
}

// WalkRoot visits the candidates of a single root.
func (w *Walker) WalkRoot(root string, visit Visitor) error {
	w.logger.Debug("walking module root", "root", root, "strategy", w.strategy.Name())
	return w.strategy.Walk(w, filepath.Clean(root), visit)
}

// Skip reports whether an entry name is hidden or a backup file.
func Skip(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~")
}

// isOtherRoot reports whether path is a configured root other than the one being walked.
func (w *Walker) isOtherRoot(path, root string) bool {
	return path != root && w.rootSet[path]
}

// readDir lists a directory, treating failures as an empty directory.
func (w *Walker) readDir(dir string) []fs.DirEntry {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.logger.Warn("skipping unreadable directory", "dir", dir, "error", err)
		return nil
	}
	return entries
}

type entryKind int

const (
	kindOther entryKind = iota
	kindFile
	kindDir
	kindLinkedDir
)

// classify resolves symlinks so that a link to a file counts as a file and a
// link to a directory can be told apart from a real directory.
func classify(path string, e fs.DirEntry) entryKind {
	mode := e.Type()
	switch {
	case mode.IsDir():
		return kindDir
	case mode.IsRegular():
		return kindFile
	case mode&fs.ModeSymlink != 0:
		info, err := os.Stat(path)
		if err != nil {
			return kindOther
		}
		if info.IsDir() {
			return kindLinkedDir
		}
		if info.Mode().IsRegular() {
			return kindFile
		}
	}
	return kindOther
}

// deriveFunc maps a file found in dir below root to a candidate.
// Returning false drops the file.
type deriveFunc func(root, dir, file string) (Candidate, bool)

// walkTree descends root depth-first in directory listing order and calls
// derive for every file. Symlinked directories are not followed.
func (w *Walker) walkTree(root string, derive deriveFunc, visit Visitor) error {
	return w.descend(root, root, derive, visit)
}

func (w *Walker) descend(root, dir string, derive deriveFunc, visit Visitor) error {
	for _, e := range w.readDir(dir) {
		name := e.Name()
		if Skip(name) {
			continue
		}

		path := filepath.Join(dir, name)
		if w.isOtherRoot(path, root) {
			w.logger.Debug("not entering another module root", "path", path, "root", root)
			continue
		}

		switch classify(path, e) {
		case kindDir:
			if err := w.descend(root, path, derive, visit); err != nil {
				return err
			}
		case kindFile:
			c, ok := derive(root, dir, name)
			if !ok {
				continue
			}
			c.Root = root
			c.Path = path
			if err := visit(c); err != nil {
				return err
			}
		case kindLinkedDir:
			w.logger.Debug("not following symlinked directory", "path", path)
		}
	}
	return nil
}

// relSlash returns target relative to root using forward slashes.
func relSlash(root, target string) string {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return target
	}
	return filepath.ToSlash(rel)
}
