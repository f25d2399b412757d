package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourname/healthday/internal"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func useFileStore(t *testing.T) string {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "development")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("STORAGE_BACKEND", "file")
	t.Setenv("DATA_FILE", filepath.Join(dir, "records.json"))
	t.Setenv("TIME_ZONE", "UTC")
	return filepath.Join(dir, "missing.env")
}

func TestSeedThenShow(t *testing.T) {
	envPath := useFileStore(t)

	out, err := run(t, "seed", "--env-file", envPath, "--at", "2024-01-10T12:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "inserted 3 demo records")

	out, err = run(t, "show", "--env-file", envPath, "--date", "2024-01-10")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01-10")
	assert.Contains(t, out, "steps:      120")
	assert.Contains(t, out, "heart rate: 78")
	assert.Contains(t, out, "sleep:      8h 0m")

	out, err = run(t, "show", "--env-file", envPath, "--date", "2024-01-11")
	require.NoError(t, err)
	assert.Contains(t, out, "steps:      0")
	assert.Contains(t, out, "heart rate: —")
}

func TestStepsCommands(t *testing.T) {
	envPath := useFileStore(t)

	_, err := run(t, "steps", "set", "250", "--env-file", envPath, "--date", "2024-01-10")
	require.NoError(t, err)
	_, err = run(t, "steps", "set", "50", "--env-file", envPath, "--date", "2024-01-10")
	require.NoError(t, err)
	out, err := run(t, "show", "--env-file", envPath, "--date", "2024-01-10")
	require.NoError(t, err)
	assert.Contains(t, out, "steps:      300")

	_, err = run(t, "steps", "set", "lots", "--env-file", envPath, "--date", "2024-01-10")
	var pe *internal.ParseError
	assert.True(t, errors.As(err, &pe))

	_, err = run(t, "steps", "delete", "--env-file", envPath, "--date", "2024-01-10")
	require.NoError(t, err)
	out, err = run(t, "show", "--env-file", envPath, "--date", "2024-01-10")
	require.NoError(t, err)
	assert.Contains(t, out, "steps:      0")
}

func TestShowRejectsBadDate(t *testing.T) {
	envPath := useFileStore(t)
	_, err := run(t, "show", "--env-file", envPath, "--date", "2024-13-01")
	var ide *internal.InvalidDateError
	assert.True(t, errors.As(err, &ide))
}

func TestDateFlag(t *testing.T) {
	d, err := dateFlag("2024-02-29", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, internal.NewDate(2024, time.February, 29), d)

	d, err = dateFlag("", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, internal.DateOf(time.Now().UTC()), d)
}
