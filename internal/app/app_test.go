package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolbox/internal/config"
)

func TestNewLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	log := NewLogger(&buf, config.LogConfig{Level: "warn", Format: "json"})
	log.Info("hidden")
	log.Warn("shown", slog.String("owner", "alice"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"owner":"alice"`)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		" WARN": slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
	} {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestSyncCatalogFromDirectory(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog")
	require.NoError(t, os.MkdirAll(catalog, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(catalog, "fire.md"),
		[]byte("ID: c1\nTitle: Flashover\nContent: Ignition\nCategory: fire\n"), 0o644))

	cfg := config.Default()
	cfg.Store.Path = filepath.Join(dir, "knolbox.db")
	cfg.Sync.Catalog = catalog
	cfg.Sync.ReposDir = filepath.Join(dir, "repos")

	var buf bytes.Buffer
	a, err := New(&cfg, slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, err)
	defer a.Close()

	reports, err := a.SyncCatalog(context.Background(), []string{"alice"})
	require.NoError(t, err)
	assert.Equal(t, 1, reports["alice"].Created)
	assert.True(t, strings.Contains(buf.String(), "catalog loaded"))

	st, err := a.Stats.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalCards)
}

func TestSyncCatalogRequiresSource(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "knolbox.db")

	a, err := New(&cfg, slog.Default())
	require.NoError(t, err)
	defer a.Close()

	_, err = a.SyncCatalog(context.Background(), nil)
	assert.Error(t, err)
}
