// Package testutil starts throwaway containers for integration tests.
// Every helper skips the calling test when Docker is unavailable or the
// test runs with -short.
package testutil

import "testing"

func requireDocker(t *testing.T, name string) {
	t.Helper()
	if testing.Short() {
		t.Skipf("skipping %s container in short mode", name)
	}
}

// skipOnPanic converts a testcontainers panic (no Docker socket) into a skip.
func skipOnPanic(t *testing.T, name string) {
	if r := recover(); r != nil {
		t.Skipf("failed to start %s container: %v", name, r)
	}
}
