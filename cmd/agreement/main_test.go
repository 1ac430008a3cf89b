package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/agreement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const visitsCSV = "household,name,age\n" +
	"H1,Alice,30\n" +
	"H1,Alicia,30\n" +
	"H2,Bob,41\n" +
	"H2,Bob,41\n"

func writeVisits(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "visits.csv")
	require.NoError(t, os.WriteFile(path, []byte(visitsCSV), 0600))
	return path
}

func runCommand(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Summary(t *testing.T) {
	t.Parallel()

	data := writeVisits(t)

	t.Run("modal scoring", func(t *testing.T) {
		t.Parallel()
		code, stdout, stderr := runCommand("-g", "household", data)
		require.Equal(t, exitOK, code, stderr)
		want := "*** Summary for group \"H1\"\n" +
			"- Points of comparison: 2\n" +
			"- Total agreement: 0.75\n" +
			"*** Summary for group \"H2\"\n" +
			"- Points of comparison: 2\n" +
			"- Total agreement: 1\n"
		assert.Equal(t, want, stdout)
	})

	t.Run("unanimous scoring", func(t *testing.T) {
		t.Parallel()
		code, stdout, stderr := runCommand("-group_column", "household", "-scoring", "unanimous", data)
		require.Equal(t, exitOK, code, stderr)
		assert.Contains(t, stdout, "- Total agreement: 0.5\n")
	})

	t.Run("single column", func(t *testing.T) {
		t.Parallel()
		code, stdout, stderr := runCommand("-g", "household", "-f", "age", "-l", "age", data)
		require.Equal(t, exitOK, code, stderr)
		assert.Equal(t, 2, strings.Count(stdout, "- Points of comparison: 1\n"))
		assert.NotContains(t, stdout, "0.75")
	})

	t.Run("debug logging", func(t *testing.T) {
		t.Parallel()
		code, _, stderr := runCommand("-v", "-g", "household", data)
		require.Equal(t, exitOK, code, stderr)
		assert.Contains(t, stderr, "mask resolved")
	})
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	code, stdout, stderr := runCommand("-h")
	assert.Equal(t, exitOK, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Usage: agreement [flags] DATAFILE")
	assert.Contains(t, stderr, "modal (default) or unanimous")
	assert.Contains(t, stderr, "use unanimous for the all-or-nothing totals")
}

func TestRun_ExitCodes(t *testing.T) {
	t.Parallel()

	data := writeVisits(t)
	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "help", args: []string{"-h"}, want: exitOK},
		{name: "no data file", args: []string{"-g", "household"}, want: exitUsage},
		{name: "two data files", args: []string{data, data}, want: exitUsage},
		{name: "unknown flag", args: []string{"-nope", data}, want: exitUsage},
		{name: "bad scoring", args: []string{"-scoring", "majority", data}, want: exitUsage},
		{name: "bad chart extension", args: []string{"-chart", "out.svg", data}, want: exitUsage},
		{name: "history without db", args: []string{"-history"}, want: exitUsage},
		{name: "missing data file", args: []string{filepath.Join(t.TempDir(), "none.csv")}, want: exitInput},
		{name: "unsupported data file", args: []string{filepath.Join(t.TempDir(), "visits.txt")}, want: exitInput},
		{name: "unknown group column", args: []string{"-g", "village", data}, want: exitColumn},
		{name: "unknown first column", args: []string{"-f", "weight", data}, want: exitColumn},
		{name: "reversed range", args: []string{"-f", "age", "-l", "name", data}, want: exitColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, _, stderr := runCommand(tt.args...)
			assert.Equal(t, tt.want, code, stderr)
		})
	}
}

func TestRun_Outputs(t *testing.T) {
	t.Parallel()

	data := writeVisits(t)
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "agreement.csv")
	chartPath := filepath.Join(dir, "agreement.html")
	dbPath := filepath.Join(dir, "runs.db")

	code, _, stderr := runCommand("-g", "household",
		"-export", exportPath, "-chart", chartPath, "-db", dbPath, data)
	require.Equal(t, exitOK, code, stderr)

	exported, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(exported), "group,size,comparisons,total_agreement,defined,scoring,disagreements\n"))
	assert.Contains(t, string(exported), "H1,2,2,0.75,true,modal,1\n")

	html, err := os.ReadFile(chartPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "echarts")

	code, stdout, stderr := runCommand("-db", dbPath, "-history")
	require.Equal(t, exitOK, code, stderr)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], data)
	assert.Contains(t, lines[0], "group_column=household")
	assert.Contains(t, lines[0], "scoring=modal")
}

func TestRun_ConfigFile(t *testing.T) {
	t.Parallel()

	data := writeVisits(t)
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "columns.json")
	configPath := filepath.Join(dir, "agreement.json")
	body := fmt.Sprintf(`{"data": %q, "group_column": "household", "scoring": "unanimous", "export": %q, "columns": true}`,
		data, exportPath)
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0600))

	code, stdout, stderr := runCommand("-config", configPath)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "- Total agreement: 0.5\n")

	exported, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Contains(t, string(exported), `"column": "name"`)

	// flags win over the file
	code, stdout, stderr = runCommand("-config", configPath, "-scoring", "modal")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "- Total agreement: 0.75\n")

	code, _, _ = runCommand("-config", filepath.Join(dir, "agreement.yaml"))
	assert.Equal(t, exitUsage, code)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitColumn, exitCode(fmt.Errorf("wrapped: %w", &agreement.ColumnNotFoundError{Column: "x", Role: "group"})))
	assert.Equal(t, exitColumn, exitCode(&agreement.InvalidRangeError{First: "b", Last: "a", FirstIndex: 1}))
	assert.Equal(t, exitUsage, exitCode(usagef("bad flag")))
	assert.Equal(t, exitUsage, exitCode(agreement.ErrInvalidSeparator))
	assert.Equal(t, exitInput, exitCode(agreement.ErrFileNotFound))
	assert.Equal(t, exitInput, exitCode(errors.New("disk full")))
}
