package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/mcpdemo/config"
	"github.com/dhamidi/mcpdemo/history"
)

func TestHeaderFlag(t *testing.T) {
	headers := headerFlag{}
	require.NoError(t, headers.Set("Authorization: Bearer abc"))
	require.NoError(t, headers.Set("X-Empty:"))
	assert.Equal(t, headerFlag{"Authorization": "Bearer abc", "X-Empty": ""}, headers)

	assert.Error(t, headers.Set("no colon"))
	assert.Error(t, headers.Set(": value"))
}

func TestHistoryPath(t *testing.T) {
	t.Setenv(config.EnvHistory, "")
	assert.Equal(t, history.DefaultDatabasePath, historyPath(""))

	t.Setenv(config.EnvHistory, "/tmp/env.db")
	assert.Equal(t, "/tmp/env.db", historyPath(""))
	assert.Equal(t, "flag.db", historyPath("flag.db"))
}

func TestSelectServer(t *testing.T) {
	dir := t.TempDir()
	single := filepath.Join(dir, "single.yaml")
	require.NoError(t, os.WriteFile(single, []byte("mcpServers:\n  local:\n    transport: stdio\n    command: ./server\n"), 0644))
	multi := filepath.Join(dir, "multi.json")
	require.NoError(t, os.WriteFile(multi, []byte(`{"mcpServers": {"a": {"transport": "sse", "url": "http://127.0.0.1:8000/sse"}, "b": {"transport": "http", "url": "http://127.0.0.1:8000/mcp"}}}`), 0644))

	entry, err := selectServer(single, "")
	require.NoError(t, err)
	assert.Equal(t, "./server", entry.Command)

	_, err = selectServer(multi, "")
	assert.ErrorContains(t, err, "choose one of: a, b")

	entry, err = selectServer(multi, "b")
	require.NoError(t, err)
	assert.Equal(t, config.TransportHTTP, entry.Transport)

	_, err = selectServer(multi, "c")
	assert.ErrorIs(t, err, config.ErrServerNotFound)

	entry, err = selectServer("", "")
	require.NoError(t, err)
	assert.Equal(t, config.TransportStdio, entry.Transport)
	assert.Equal(t, []string{"server", "-transport", "stdio"}, entry.Args)
}

func TestFormatRun(t *testing.T) {
	run := &history.Run{
		ID:                "run-1",
		BaseURL:           "http://127.0.0.1:8000/sse",
		Tools:             []string{"add", "greet_tool"},
		Error:             "404 Not Found",
		ReportedEndpoint:  "/127.0.0.1/sse?sessionid=1",
		SuggestedEndpoint: "http://127.0.0.1:8000/sse?sessionid=1",
		Recovered:         true,
		Duration:          2 * time.Second,
		CreatedAt:         time.Now(),
	}
	out := formatRun(run)
	assert.True(t, strings.HasPrefix(out, "# Run run-1\n"))
	assert.Contains(t, out, "- status: recovered\n")
	assert.Contains(t, out, "- reported endpoint: `/127.0.0.1/sse?sessionid=1`\n")
	assert.Contains(t, out, "## Tools (2)\n\n- add\n- greet_tool\n")

	list := formatRunList([]history.RunMetadata{{ID: "run-1", BaseURL: run.BaseURL, ToolCount: 2, CreatedAt: run.CreatedAt}})
	assert.Contains(t, list, "run-1 http://127.0.0.1:8000/sse: ok, 2 tools")
}
