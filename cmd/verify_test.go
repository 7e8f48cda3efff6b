package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/JGorski-cyber/event-sentinel/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyCmd_GeneratedReport(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "access.log")
	require.NoError(t, os.WriteFile(input, []byte(accessLog), 0644))
	out := filepath.Join(dir, "out")

	_, _, err := execute(t, "-f", input, "--output-path", out, "--no-color")
	require.NoError(t, err)

	stdout, _, err := execute(t, "verify", filepath.Join(out, report.JSONFileName), "--no-color")
	require.NoError(t, err)
	assert.Contains(t, stdout, "is valid")
	assert.Contains(t, stdout, "Groups:  1")
}

func TestVerifyCmd_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"web:unknown": {"count": 0}}`), 0644))

	_, _, err := execute(t, "verify", path)
	assert.ErrorIs(t, err, report.ErrInvalidReport)
}

func TestVerifyCmd_Args(t *testing.T) {
	_, _, err := execute(t, "verify")
	assert.Error(t, err)

	_, _, err = execute(t, "verify", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to open report")
}
