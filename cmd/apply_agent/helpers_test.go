package main

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// getBinaryPath returns the absolute path of a built apply_agent, from APPLY_AGENT_BIN or
// bin/ at the repository root. Tests run the binary from temp dirs, so the path must not
// be relative.
func getBinaryPath(t *testing.T) string {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := os.Getenv("APPLY_AGENT_BIN")
	if binaryPath == "" {
		binaryPath = filepath.Join("..", "..", "bin", "apply_agent")
	}
	abs, err := filepath.Abs(binaryPath)
	if err != nil {
		t.Fatalf("resolve %s: %v", binaryPath, err)
	}
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'go build -o bin/apply_agent ./cmd/apply_agent'", abs)
	}
	return abs
}

// withoutEnv returns the environment minus the named variables.
func withoutEnv(names ...string) []string {
	return slices.DeleteFunc(os.Environ(), func(e string) bool {
		name, _, _ := strings.Cut(e, "=")
		return slices.Contains(names, name)
	})
}
