package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func runArgs(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"testrunner"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeCases(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRepositoryCasesOnEmulator(t *testing.T) {
	for _, target := range []string{"x86_64-linux", "aarch64-linux", "aarch64-darwin"} {
		t.Run(target, func(t *testing.T) {
			code, stdout, stderr := runArgs("--emulate", "--target", target, "--cases", "../../tests/cases.yaml")
			require.Equal(t, 0, code, "stdout:\n%s\nstderr:\n%s", stdout, stderr)
			assert.Contains(t, stdout, "PASS 01_single_digit")
			assert.NotRegexp(t, `(?m)^FAIL `, stdout)
			assert.Contains(t, stdout, "emulator")
		})
	}
}

func TestFailingCase(t *testing.T) {
	path := writeCases(t, `
cases:
  - name: 01_ok
    input: "1+1"
    status: 2
  - name: 02_wrong
    input: "1+1"
    status: 3
`)
	code, stdout, stderr := runArgs("--emulate", "--target", "x86_64-linux", "--cases", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "PASS 01_ok\n")
	assert.Contains(t, stdout, "FAIL 02_wrong: exit status 2, expected 3\n")
	assert.Empty(t, stderr)
}

func TestSelectCases(t *testing.T) {
	path := writeCases(t, `
cases:
  - name: 01_one
    input: "1"
    status: 1
  - name: 02_two
    input: "2"
    status: 2
`)
	code, stdout, _ := runArgs("--emulate", "--cases", path, "02")
	require.Equal(t, 0, code)
	assert.NotContains(t, stdout, "01_one")
	assert.Contains(t, stdout, "PASS 02_two")

	code, _, stderr := runArgs("--emulate", "--cases", path, "03")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "case not found: 03")
}

func TestBadArguments(t *testing.T) {
	code, _, stderr := runArgs("--emulate", "--target", "pdp11")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown target: pdp11")

	code, _, stderr = runArgs("--emulate", "--cases", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "missing.yaml")
}
