// Package testutil provides utilities for testing the loader in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv isolates a test from the host's library search variables
// and returns a temp directory to extract into.
//
// The search variables are restored by t.Setenv and the directory by
// t.TempDir, so callers don't need to clean up.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	t.Setenv("NATIVELOAD_LIBRARY_PATH", "")
	t.Setenv("LD_LIBRARY_PATH", "")
	t.Setenv("DYLD_LIBRARY_PATH", "")

	extractDir := filepath.Join(tmpDir, "natives")
	if err := os.MkdirAll(extractDir, 0o750); err != nil {
		t.Fatalf("failed to create test directory %s: %v", extractDir, err)
	}

	return extractDir
}
