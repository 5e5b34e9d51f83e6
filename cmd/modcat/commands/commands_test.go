package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/modcat/internal/testutil"
	"github.com/dyluth/modcat/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func moduleTree(t *testing.T) string {
	t.Helper()

	root := testutil.NewRoot(t, "modulefiles")
	testutil.WriteTree(t, root, map[string]string{
		"gcc/9.2.0":   testutil.ModuleFile(`## "Description:GNU Compiler"`, `## "Category:compilers"`),
		"cmake/3.2":   testutil.ModuleFile(`puts stderr "Cross-platform build system"`),
		"python/3.11": testutil.ModuleFile(),
		"gcc/notes":   "not a module\n",
	})
	return root
}

func TestScanCommand(t *testing.T) {
	t.Run("prints JSONL records", func(t *testing.T) {
		isolate(t)
		root := moduleTree(t)

		stdout, stderr, err := executeCommand(t, "scan", "--module-path", root, "--output", "jsonl", "--exclude", "python")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		require.Len(t, lines, 2)

		handles := make([]string, 0, len(lines))
		for _, line := range lines {
			var entry catalog.Entry
			require.NoError(t, json.Unmarshal([]byte(line), &entry))
			handles = append(handles, entry.Handles[0].Value)
		}
		assert.ElementsMatch(t, []string{"gcc/9.2.0", "cmake/3.2"}, handles)
		assert.Contains(t, stderr, "scan complete")
	})

	t.Run("MODULEPATH is used when nothing else is set", func(t *testing.T) {
		isolate(t)
		t.Setenv("MODULEPATH", moduleTree(t))

		stdout, _, err := executeCommand(t, "scan")
		require.NoError(t, err)
		assert.Contains(t, stdout, "gcc/9.2.0")
		assert.Contains(t, stdout, "3 records found")
	})

	t.Run("missing module path is fatal", func(t *testing.T) {
		isolate(t)

		stdout, stderr, err := executeCommand(t, "scan")
		require.Error(t, err)
		assert.Equal(t, "no module search path", err.Error())
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "--module-path")
	})

	t.Run("invalid output format", func(t *testing.T) {
		isolate(t)

		_, stderr, err := executeCommand(t, "scan", "--output", "xml")
		require.Error(t, err)
		assert.Contains(t, stderr, "Valid formats: default, jsonl, json")
	})

	t.Run("invalid strategy", func(t *testing.T) {
		isolate(t)

		_, stderr, err := executeCommand(t, "scan", "--module-path", moduleTree(t), "--strategy", "spiral")
		require.Error(t, err)
		assert.Equal(t, "invalid configuration", err.Error())
		assert.Contains(t, stderr, "invalid strategy: spiral")
	})

	t.Run("configuration file", func(t *testing.T) {
		dir := isolate(t)
		root := moduleTree(t)
		writeFile(t, dir, "modcat.toml", "module_path = \""+root+"\"\nstrategy = \"flat\"\nexclude = \"gcc,cmake\"\n")

		stdout, _, err := executeCommand(t, "scan", "--config", "modcat.toml", "--output", "json")
		require.NoError(t, err)

		var entries []*catalog.Entry
		require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "python", entries[0].Record.Name)
	})
}

func TestPublishThenInspect(t *testing.T) {
	isolate(t)
	mr := miniredis.RunT(t)
	root := moduleTree(t)
	redisURL := "redis://" + mr.Addr()

	stdout, _, err := executeCommand(t, "scan", "--module-path", root, "--publish", "--redis-url", redisURL, "--resource-name", "frontera")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Published 3 records for frontera")

	t.Run("hoard lists", func(t *testing.T) {
		stdout, _, err := executeCommand(t, "hoard", "--redis-url", redisURL, "--resource-name", "frontera", "--category", "compilers")
		require.NoError(t, err)
		assert.Contains(t, stdout, "gcc/9.2.0")
		assert.NotContains(t, stdout, "cmake/3.2")
		assert.Contains(t, stdout, "1 record found")
	})

	t.Run("hoard gets by handle", func(t *testing.T) {
		stdout, _, err := executeCommand(t, "hoard", "cmake/3.2", "--redis-url", redisURL, "--resource-name", "frontera")
		require.NoError(t, err)

		var entry catalog.Entry
		require.NoError(t, json.Unmarshal([]byte(stdout), &entry))
		assert.Equal(t, "Cross-platform build system", entry.Record.Description)
		assert.Equal(t, "frontera", entry.Record.ResourceName)
	})

	t.Run("hoard reports unknown records", func(t *testing.T) {
		_, stderr, err := executeCommand(t, "hoard", "nothing/1.0", "--redis-url", redisURL, "--resource-name", "frontera")
		require.Error(t, err)
		assert.Contains(t, stderr, "modcat scan --publish")
	})

	t.Run("other resources are separate", func(t *testing.T) {
		stdout, _, err := executeCommand(t, "hoard", "--redis-url", redisURL, "--resource-name", "stampede")
		require.NoError(t, err)
		assert.Contains(t, stdout, "No records found for resource 'stampede'")
	})

	t.Run("watch waits for an existing handle", func(t *testing.T) {
		stdout, _, err := executeCommand(t, "watch", "--wait", "gcc/9.2.0", "--timeout", "5s", "--redis-url", redisURL, "--resource-name", "frontera")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Published: gcc/9.2.0")
	})
}

func TestHoardRedisUnavailable(t *testing.T) {
	isolate(t)
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, stderr, err := executeCommand(t, "hoard", "--redis-url", "redis://"+addr)
	require.Error(t, err)
	assert.Equal(t, "Redis connection failed", err.Error())
	assert.Contains(t, stderr, addr)
}

func TestInitCommand(t *testing.T) {
	dir := isolate(t)
	t.Setenv("MODULEPATH", "/opt/modulefiles")

	stdout, _, err := executeCommand(t, "init", "--resource-name", "frontera")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Successfully initialized")

	content, err := os.ReadFile(filepath.Join(dir, "modcat.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "/opt/modulefiles")
	assert.Contains(t, string(content), "frontera")

	_, stderr, err := executeCommand(t, "init")
	require.Error(t, err)
	assert.Contains(t, stderr, "already initialized")

	_, _, err = executeCommand(t, "init", "--force")
	require.NoError(t, err)
}

func TestScanPublishFailureIsReported(t *testing.T) {
	isolate(t)
	mr := miniredis.RunT(t)
	root := moduleTree(t)

	// Ping succeeds, but the run summary write hits a key of the wrong type.
	require.NoError(t, mr.Set(catalog.RunKey("frontera"), "not a hash"))

	_, stderr, err := executeCommand(t, "scan", "--module-path", root, "--publish",
		"--redis-url", "redis://"+mr.Addr(), "--resource-name", "frontera")
	require.Error(t, err)
	assert.Equal(t, "failed to publish catalog", err.Error())
	assert.Contains(t, stderr, "WRONGTYPE")
	assert.Contains(t, stderr, "frontera")
}

func TestCobraErrorsAreReported(t *testing.T) {
	isolate(t)

	_, stderr, err := executeCommand(t, "watch", "extra-argument")
	require.Error(t, err)
	assert.Contains(t, stderr, "unknown command")
	assert.Contains(t, stderr, "modcat --help")
}
