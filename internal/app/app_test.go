package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphataylor/WebGraph/internal/bookmarks"
	"github.com/raphataylor/WebGraph/internal/config"
	"github.com/raphataylor/WebGraph/internal/store"
)

func TestNewWithMemoryBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "memory"

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	sites, err := a.Bookmarks.ListBookmarks(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, sites, "example dataset seeds the first run")
	assert.Equal(t, len(sites)+4, a.Controller.Graph().NodeCount())
}

func TestSQLiteBackendPersistsAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.DSN = filepath.Join(dir, "webgraph.db")
	cfg.Storage.SnapshotDir = filepath.Join(dir, "snapshots")
	cfg.Bookmarks.SeedExamples = false
	ctx := context.Background()

	a, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	site, err := a.Bookmarks.AddBookmark(ctx, &bookmarks.SiteInput{URL: "https://go.dev", Tags: []string{"go"}})
	require.NoError(t, err)
	require.NoError(t, a.Snapshots.Put(ctx, site.ID, []byte("png")))
	_, err = a.Settings.Set(ctx, "linkDistance", 80)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	defer b.Close()

	got, err := b.Bookmarks.Get(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, got.Tags)
	assert.Equal(t, 80.0, b.Settings.Get().LinkDistance)

	has, err := b.Snapshots.Has(ctx, site.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestFSBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.Driver = "fs"
	cfg.Storage.DataDir = filepath.Join(dir, "data")
	cfg.Storage.SnapshotDir = filepath.Join(dir, "snapshots")

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	assert.NotZero(t, a.Controller.Graph().NodeCount())
}

func TestUnknownDriver(t *testing.T) {
	_, _, err := OpenBackends(config.StorageConfig{Driver: "postgres"})
	assert.Error(t, err)
}

func TestNewWithBackendsSharesOneStore(t *testing.T) {
	kv := store.NewMemStore()
	cfg := config.Default()
	cfg.Bookmarks.SeedExamples = false

	a, err := NewWithBackends(context.Background(), cfg, nil, kv, kv)
	require.NoError(t, err)
	require.NoError(t, a.Snapshots.Put(context.Background(), "site1", []byte("x")))

	keys, err := kv.Keys(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, keys, "snapshot/site1")
	assert.NoError(t, a.Close(), "a shared backend is closed once")
}
