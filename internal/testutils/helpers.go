// Package testutils holds fixtures shared by package tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// WriteFile writes body to rel under root, creating parent directories.
// It returns the absolute path and fails the test immediately on error.
func WriteFile(t *testing.T, root, rel, body string) string {
	t.Helper()

	path, err := filepath.Abs(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err, "Failed to resolve fixture path")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// Rewrite replaces the file content and pushes its mtime into the future,
// so polling watchers see the edit even on coarse-grained filesystems.
func Rewrite(t *testing.T, path, body string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
}
