package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphataylor/WebGraph/internal/bookmarks"
	"github.com/raphataylor/WebGraph/internal/view"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "webgraph.yaml")
	body := fmt.Sprintf(`logging:
  level: error
storage:
  driver: fs
  dataDir: %s
  snapshotDir: %s
bookmarks:
  seedExamples: false
`, filepath.Join(dir, "data"), filepath.Join(dir, "snapshots"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, cfg string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestAddListRemove(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "add", "https://go.dev", "--title", "Go", "--tag", "lang,compiled")
	require.NoError(t, err)
	assert.Equal(t, "added site1 https://go.dev\n", out)

	out, err = run(t, cfg, "ls", "--json")
	require.NoError(t, err)
	var sites []bookmarks.Site
	require.NoError(t, json.Unmarshal([]byte(out), &sites))
	require.Len(t, sites, 1)
	assert.Equal(t, []string{"lang", "compiled"}, sites[0].Tags)

	out, err = run(t, cfg, "visit", "site1")
	require.NoError(t, err)
	assert.Equal(t, "site1 visits=1\n", out)

	out, err = run(t, cfg, "tags")
	require.NoError(t, err)
	assert.Contains(t, out, "lang")
	assert.Contains(t, out, "sites=1")

	_, err = run(t, cfg, "rm", "site1")
	require.NoError(t, err)

	out, err = run(t, cfg, "ls")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEditReplacesTags(t *testing.T) {
	cfg := writeConfig(t)
	_, err := run(t, cfg, "add", "https://go.dev", "--tag", "a")
	require.NoError(t, err)

	out, err := run(t, cfg, "edit", "site1", "--tag", "b", "--notes", "hello")
	require.NoError(t, err)
	var site bookmarks.Site
	require.NoError(t, json.Unmarshal([]byte(out), &site))
	assert.Equal(t, []string{"b"}, site.Tags)
	assert.Equal(t, "hello", site.Notes)
	assert.Equal(t, bookmarks.DefaultTitle, site.Title, "untouched fields keep their value")
}

func TestTagCommands(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "tags", "add", "later")
	require.NoError(t, err)
	assert.Equal(t, "tag1 later\n", out)

	out, err = run(t, cfg, "tags", "rename", "tag1", "someday")
	require.NoError(t, err)
	assert.Equal(t, "tag1 someday\n", out)

	out, err = run(t, cfg, "tags", "cleanup")
	require.NoError(t, err)
	assert.Equal(t, "removed tag1 someday\n", out)

	_, err = run(t, cfg, "tags", "rm", "tag1")
	assert.Error(t, err)
}

func TestSettingsCommands(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "settings", "set", "linkDistance=75", "textSize=14")
	require.NoError(t, err)

	out, err := run(t, cfg, "settings", "get", "linkDistance")
	require.NoError(t, err)
	assert.Equal(t, "75\n", out)

	_, err = run(t, cfg, "settings", "set", "linkDistance")
	assert.Error(t, err)
	_, err = run(t, cfg, "settings", "get", "bogus")
	assert.Error(t, err)

	_, err = run(t, cfg, "settings", "reset")
	require.NoError(t, err)
	out, err = run(t, cfg, "settings", "get", "linkDistance")
	require.NoError(t, err)
	assert.Equal(t, "50\n", out)
}

func TestSnapshotCommands(t *testing.T) {
	cfg := writeConfig(t)
	_, err := run(t, cfg, "add", "https://go.dev")
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "page.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	_, err = run(t, cfg, "snapshot", "put", "missing", src)
	assert.Error(t, err, "snapshots need an existing bookmark")

	out, err := run(t, cfg, "snapshot", "put", "site1", src)
	require.NoError(t, err)
	assert.Contains(t, out, "text/plain")

	out, err = run(t, cfg, "snapshot", "get", "site1")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	out, err = run(t, cfg, "snapshot", "get", "site1", "--data-uri")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "data:text/plain"))

	out, err = run(t, cfg, "snapshot", "ls")
	require.NoError(t, err)
	assert.Equal(t, "site1\n", out)

	_, err = run(t, cfg, "rm", "site1")
	require.NoError(t, err)
	_, err = run(t, cfg, "snapshot", "get", "site1")
	assert.Error(t, err, "removing a bookmark drops its snapshot")
	out, err = run(t, cfg, "snapshot", "ls")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLayoutOutputs(t *testing.T) {
	cfg := writeConfig(t)
	_, err := run(t, cfg, "add", "https://go.dev", "--tag", "go")
	require.NoError(t, err)
	_, err = run(t, cfg, "add", "https://pkg.go.dev", "--tag", "go")
	require.NoError(t, err)

	out, err := run(t, cfg, "layout", "--search", "go")
	require.NoError(t, err)
	var frame view.Frame
	require.NoError(t, json.Unmarshal([]byte(out), &frame))
	assert.False(t, frame.Running)
	assert.Len(t, frame.Nodes, 3)
	assert.Len(t, frame.Links, 2)
	assert.Len(t, frame.Groups, 1)

	out, err = run(t, cfg, "layout", "--format", "svg", "--ticks", "10")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<svg"))

	_, err = run(t, cfg, "layout", "--format", "png")
	assert.Error(t, err)
}

func TestClearNeedsConfirmation(t *testing.T) {
	cfg := writeConfig(t)
	_, err := run(t, cfg, "add", "https://go.dev")
	require.NoError(t, err)

	_, err = run(t, cfg, "clear")
	assert.Error(t, err)

	_, err = run(t, cfg, "clear", "--yes")
	require.NoError(t, err)
	out, err := run(t, cfg, "ls")
	require.NoError(t, err)
	assert.Empty(t, out)
}
