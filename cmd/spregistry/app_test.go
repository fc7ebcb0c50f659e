package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/spregistry/internal/core"
)

const batch = `[{"fields": {"responseId": "r1", "0_storage_provider_operator_name": "Acme",
  "1_minerid": "f0100", "1_city": "Berlin", "1_country": "DE"},
  "results": [{"identifier": "f0100", "success": true}]}]`

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestRun_ReconcileCSV(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "batch.json")
	require.NoError(t, os.WriteFile(input, []byte(batch), 0o644))

	var out bytes.Buffer
	code := run(context.Background(), []string{"reconcile", input}, nil, &out, env(map[string]string{
		"STORE_DRIVER":  "csv",
		"STORE_CSV_DIR": dir,
		"RUN_ISSUE_ID":  "12",
		"LOG_LEVEL":     "error",
	}))
	require.Equal(t, exitOK, code)

	var report core.RunReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 1, report.Accepted)
	assert.Equal(t, 1, report.NewOrganizations)

	listing, err := os.ReadFile(filepath.Join(dir, "listing.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(listing), "f0100,Acme,1,Berlin,DE,EU,true,")

	log, err := os.ReadFile(filepath.Join(dir, "processing_log.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(string(log)), ",r1,,true,,12"), string(log))
}

func TestRun_DryRunFromStdin(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	code := run(context.Background(), []string{"-dry-run", "-"}, strings.NewReader(batch), &out, env(map[string]string{
		"STORE_CSV_DIR": dir,
		"LOG_LEVEL":     "error",
	}))
	require.Equal(t, exitOK, code)
	assert.Contains(t, out.String(), `"dryRun": true`)

	_, err := os.Stat(filepath.Join(dir, "listing.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	base := map[string]string{"STORE_CSV_DIR": dir, "LOG_LEVEL": "error"}

	assert.Equal(t, exitUsage, run(context.Background(), nil, nil, &bytes.Buffer{}, env(base)))
	assert.Equal(t, exitError, run(context.Background(), []string{filepath.Join(dir, "missing.json")}, nil, &bytes.Buffer{}, env(base)))
	assert.Equal(t, exitError, run(context.Background(), []string{"-"}, strings.NewReader("nope"), &bytes.Buffer{}, env(base)))

	bad := map[string]string{"STORE_DRIVER": "ftp", "LOG_LEVEL": "error"}
	assert.Equal(t, exitError, run(context.Background(), []string{"-"}, strings.NewReader(batch), &bytes.Buffer{}, env(bad)))
}
