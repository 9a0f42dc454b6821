package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSecret(t *testing.T) {
	var prompt bytes.Buffer

	pw, err := readSecret(strings.NewReader("s3cret-pass\r\nignored\n"), &prompt, "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "s3cret-pass", pw)
	assert.Empty(t, prompt.String(), "no prompt when stdin is not a terminal")
}

func TestReadSecret_Empty(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no input", ""},
		{"blank line", "   \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readSecret(strings.NewReader(tt.input), &bytes.Buffer{}, "Password: ")
			assert.Error(t, err)
		})
	}
}
