package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand_MissingInput(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "run")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "either --resume or --keyword must be provided")
}

func TestCommands_ArgsValidation(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		errorString string
	}{
		{"parse-resume without file", []string{"parse-resume"}, "accepts 1 arg"},
		{"scrape without keyword", []string{"scrape"}, "requires at least 1 arg"},
		{"bad category", []string{"submissions", "--category", "gig"}, "category"},
		{"bad ledger", []string{"submissions", "--ledger", "redis"}, "ledger_backend"},
	}

	binaryPath := getBinaryPath(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(binaryPath, tt.args...)
			output, err := cmd.CombinedOutput()

			assert.Error(t, err)
			assert.Contains(t, string(output), tt.errorString)
		})
	}
}

func TestParseResumeCommand_MissingAPIKey(t *testing.T) {
	binaryPath := getBinaryPath(t)

	resume := filepath.Join(t.TempDir(), "cv.txt")
	require.NoError(t, os.WriteFile(resume, []byte("Go developer"), 0o644))

	cmd := exec.Command(binaryPath, "parse-resume", resume)
	cmd.Dir = t.TempDir() // keep the repo's .env out of reach
	cmd.Env = withoutEnv("GEMINI_API_KEY")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "GEMINI_API_KEY")
}

func TestApplyCommand_NoPostings(t *testing.T) {
	binaryPath := getBinaryPath(t)

	dir := t.TempDir()
	cmd := exec.Command(binaryPath, "apply")
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "scrape first")
}

func TestSubmissionsCommand_EmptyLedger(t *testing.T) {
	binaryPath := getBinaryPath(t)

	dir := t.TempDir()
	cmd := exec.Command(binaryPath, "submissions", "--json")
	cmd.Dir = dir
	output, err := cmd.Output()

	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(output)))
}

func TestHashPasswordCommand(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "hash-password")
	cmd.Dir = t.TempDir()
	cmd.Env = append(withoutEnv("BCRYPT_COST"), "BCRYPT_COST=10")
	cmd.Stdin = strings.NewReader("operator-password\n")
	output, err := cmd.Output()

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(string(output)), "$2a$10$"))
}
