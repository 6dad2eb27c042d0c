package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harnessScenarios holds the harness package's scenarios and goldens.
const harnessScenarios = "../harness/testdata/scenarios"

const passingScenario = `name: basic
description: Seeded document reads back
seed:
  a: {n: 1}
steps:
  - op: get
    key: a
    expect:
      value: {n: 1}
  - op: len
    key: a
    path: $.n
    expect: {count: 0}
`

const failingScenario = `name: broken
description: Expectation that cannot hold
seed:
  a: {n: 1}
steps:
  - op: get
    key: a
    expect:
      value: {n: 2}
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestCmd(format string, args ...string) (*bytes.Buffer, func() error) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute
}

func TestTestCommandMissingArgs(t *testing.T) {
	testDB(t)
	_, run := newTestCmd("text")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestTestCommandNonExistentPath(t *testing.T) {
	testDB(t)
	_, run := newTestCmd("text", "/nonexistent/scenarios")

	err := run()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "does not exist")
}

func TestTestCommandEmptyDir(t *testing.T) {
	testDB(t)
	buf, run := newTestCmd("text", t.TempDir())

	require.NoError(t, run())
	assert.Contains(t, buf.String(), "No scenarios found")
}

func TestTestCommandEmptyDirJSON(t *testing.T) {
	testDB(t)
	buf, run := newTestCmd("json", t.TempDir())

	require.NoError(t, run())

	var response CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	testDB(t)
	for _, backend := range []string{"sqlite", "memory"} {
		t.Run(backend, func(t *testing.T) {
			args := []string{harnessScenarios}
			if backend == "memory" {
				args = append(args, "--memory")
			}
			buf, run := newTestCmd("text", args...)

			require.NoError(t, run(), "output:\n%s", buf.String())
			assert.Contains(t, buf.String(), "✓ user_profiles")
			assert.Contains(t, buf.String(), "✓ generated_keys")
			assert.Contains(t, buf.String(), "Test Summary: 2 passed, 0 failed, 2 total")
			assert.Contains(t, buf.String(), "✓ All scenarios passed")
		})
	}
}

func TestTestCommandFailure(t *testing.T) {
	testDB(t)
	dir := t.TempDir()
	writeScenario(t, dir, "a_pass.yaml", passingScenario)
	writeScenario(t, dir, "b_fail.yaml", failingScenario)

	buf, run := newTestCmd("text", dir)

	err := run()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, IsReported(err))
	assert.Contains(t, buf.String(), "✓ basic")
	assert.Contains(t, buf.String(), "✗ broken")
	assert.Contains(t, buf.String(), "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFailureJSON(t *testing.T) {
	testDB(t)
	dir := t.TempDir()
	writeScenario(t, dir, "b_fail.yaml", failingScenario)

	buf, run := newTestCmd("json", dir)

	err := run()
	require.Error(t, err)

	var response struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &response))
	assert.Equal(t, "error", response.Status)
	assert.Equal(t, CodeTestFailed, response.Error.Code)
	assert.Equal(t, 1, response.Data.Failed)
	require.Len(t, response.Data.Scenarios, 1)
	assert.NotEmpty(t, response.Data.Scenarios[0].Errors)
}

func TestTestCommandLoadError(t *testing.T) {
	testDB(t)
	dir := t.TempDir()
	path := writeScenario(t, dir, "bad.yaml", "name: bad\nsteps:\n  - op: explode\n")

	buf, run := newTestCmd("text", path)

	require.Error(t, run())
	assert.Contains(t, buf.String(), "✗ bad.yaml")
	assert.Contains(t, buf.String(), "failed to load scenario")
}

func TestTestCommandUpdateAndCompareGolden(t *testing.T) {
	testDB(t)
	root := t.TempDir()
	scenarios := filepath.Join(root, "scenarios")
	require.NoError(t, os.MkdirAll(scenarios, 0755))
	writeScenario(t, scenarios, "basic.yaml", passingScenario)

	buf, run := newTestCmd("text", scenarios, "--update")
	require.NoError(t, run())
	assert.Contains(t, buf.String(), "✓ basic (golden updated)")

	goldenPath := filepath.Join(root, "golden", "basic.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name": "basic"`)

	// The written golden matches on both backends.
	_, run = newTestCmd("text", scenarios)
	require.NoError(t, run())
	_, run = newTestCmd("text", scenarios, "--memory")
	require.NoError(t, run())

	// A tampered golden fails the scenario.
	require.NoError(t, os.WriteFile(goldenPath, []byte("{}\n"), 0644))
	buf, run = newTestCmd("text", scenarios)
	require.Error(t, run())
	assert.Contains(t, buf.String(), "trace does not match golden file")
}

func TestTestCommandGoldenDir(t *testing.T) {
	testDB(t)
	dir := t.TempDir()
	path := writeScenario(t, dir, "basic.yaml", passingScenario)
	goldenDir := filepath.Join(t.TempDir(), "snapshots")

	_, run := newTestCmd("text", path, "--update", "--golden-dir", goldenDir)
	require.NoError(t, run())

	_, err := os.Stat(filepath.Join(goldenDir, "basic.golden"))
	assert.NoError(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	testCases := []struct {
		dir      string
		input    string
		name     string
		expected string
	}{
		{"", "/path/to/scenarios/profiles.yaml", "profiles", "/path/to/golden/profiles.golden"},
		{"", "testdata/scenarios/a.yml", "renamed", "testdata/golden/renamed.golden"},
		{"/snapshots", "testdata/scenarios/a.yaml", "a", "/snapshots/a.golden"},
	}

	for _, tc := range testCases {
		result := goldenFilePath(tc.dir, tc.input, tc.name)
		assert.Equal(t, tc.expected, result)
	}
}

func TestTestHelpText(t *testing.T) {
	buf, run := newTestCmd("text", "--help")

	require.NoError(t, run())

	output := buf.String()
	assert.Contains(t, output, "scenario")
	assert.Contains(t, output, "--update")
	assert.Contains(t, output, "--memory")
	assert.Contains(t, output, "--golden-dir")
}
