package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.ErrorIs(t, run(context.Background(), nil, &stdout, &stderr), errUsage)
	assert.ErrorIs(t, run(context.Background(), []string{"frobnicate"}, &stdout, &stderr), errUsage)
	assert.Contains(t, stderr.String(), "unknown command")
}

func TestRunSyncThenVerify(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog")
	require.NoError(t, os.MkdirAll(catalog, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(catalog, "fire.md"),
		[]byte("ID: c1\nQ: Flashover\nA: Ignition\n---\nID: c2\nQ: Backdraft\nA: Oxygen re-entry\n"), 0o644))

	common := []string{
		"--store.path", filepath.Join(dir, "knolbox.db"),
		"--sync.catalog", catalog,
		"--log.level", "error",
	}
	ctx := context.Background()

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(ctx, append([]string{"sync", "--sync.owners", "alice"}, common...), &stdout, &stderr), stderr.String())

	var reports map[string]struct{ Created int }
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &reports))
	assert.Equal(t, 2, reports["alice"].Created)

	stdout.Reset()
	require.NoError(t, run(ctx, append([]string{"verify", "--owner", "alice"}, common...), &stdout, &stderr), stderr.String())
	var v struct{ Equal bool }
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &v))
	assert.True(t, v.Equal)

	stdout.Reset()
	require.NoError(t, run(ctx, append([]string{"stats", "--owner", "alice"}, common...), &stdout, &stderr))
	var st struct{ TotalCards int }
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &st))
	assert.Equal(t, 2, st.TotalCards)

	assert.ErrorIs(t, run(ctx, append([]string{"stats"}, common...), &stdout, &stderr), errUsage)
}
