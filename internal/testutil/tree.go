// Package testutil builds synthetic module trees for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// ModuleHeader is the magic first line of a script-dialect module file.
const ModuleHeader = "#%Module1.0\n"

// NewRoot creates a fresh module root under t.TempDir() and returns its
// symlink-free absolute path, the form roots have after configuration.
func NewRoot(t *testing.T, name string) string {
	t.Helper()

	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	root := filepath.Join(base, name)
	require.NoError(t, os.MkdirAll(root, 0755))
	return root
}

// WriteTree writes files relative to root, creating parent directories.
// A key ending in "/" creates an empty directory.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if rel[len(rel)-1] == '/' {
			require.NoError(t, os.MkdirAll(path, 0755), "Failed to create %s", rel)
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755), "Failed to create parent of %s", rel)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644), "Failed to write %s", rel)
	}
}

// ModuleFile returns a dialect A module file body with the given lines.
func ModuleFile(lines ...string) string {
	body := ModuleHeader
	for _, line := range lines {
		body += line + "\n"
	}
	return body
}
