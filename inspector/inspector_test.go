package inspector

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/mcpdemo"
	"github.com/dhamidi/mcpdemo/config"
	"github.com/dhamidi/mcpdemo/history"
)

var demoTools = []string{"add", "greet_tool", "spell_casting_tool"}

// syncBuffer collects log output written from several goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func serveDemo(t *testing.T, echoHost bool) string {
	t.Helper()
	cfg := config.DefaultServer()
	cfg.EchoHostInEndpoint = echoHost

	ctx, cancel := context.WithCancel(context.Background())
	ts := httptest.NewUnstartedServer(mcpdemo.Handler(cfg, mcpdemo.NewServer(cfg, nil), nil))
	ts.Config.BaseContext = func(net.Listener) context.Context { return ctx }
	ts.Start()
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return ts.URL + cfg.Path
}

func inspectorConfig(url string, retry bool) config.Inspector {
	return config.Inspector{URL: url, Retry: retry, Timeout: 5 * time.Second}
}

func TestRunHealthyServer(t *testing.T) {
	url := serveDemo(t, false)
	logs := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	report, err := Run(context.Background(), inspectorConfig(url, true), &Options{Logger: logger})
	require.NoError(t, err)
	assert.ElementsMatch(t, demoTools, report.Tools)
	assert.Empty(t, report.Error)
	assert.Empty(t, report.ReportedEndpoint)
	assert.False(t, report.Recovered)
	assert.Equal(t, "ok", report.Status())

	assert.Contains(t, logs.String(), `msg=">>> CALL" method=tools/list`)
	assert.Contains(t, logs.String(), `msg="<<< RETURN" method=tools/list`)
}

func TestRunRecoversFromDuplicatedHost(t *testing.T) {
	url := serveDemo(t, true)
	base := strings.TrimSuffix(url, "/sse")
	logs := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	report, err := Run(context.Background(), inspectorConfig(url, true), &Options{Logger: logger})
	require.NoError(t, err)
	assert.True(t, report.Recovered)
	assert.Equal(t, "recovered", report.Status())
	assert.NotEmpty(t, report.Error)
	assert.ElementsMatch(t, demoTools, report.Tools)
	assert.True(t, strings.HasPrefix(report.ReportedEndpoint, "/127.0.0.1/sse?sessionid="), report.ReportedEndpoint)
	assert.True(t, strings.HasPrefix(report.SuggestedEndpoint, base+"/sse?sessionid="), report.SuggestedEndpoint)

	assert.Contains(t, logs.String(), "server reported endpoint")
	assert.Contains(t, logs.String(), `msg=">>> CALL" method=initialize`)
}

func TestRunWithoutRetry(t *testing.T) {
	url := serveDemo(t, true)

	report, err := Run(context.Background(), inspectorConfig(url, false), nil)
	require.Error(t, err)
	assert.False(t, report.Recovered)
	assert.Empty(t, report.Tools)
	assert.NotEmpty(t, report.ReportedEndpoint)
	assert.Equal(t, "failed", report.Status())
}

func TestRunUnreachableServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	report, err := Run(context.Background(), inspectorConfig("http://"+addr+"/sse", true), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading endpoint")
	assert.Empty(t, report.ReportedEndpoint)
	assert.NotEmpty(t, report.Error)
}

func TestRunRecordsHistory(t *testing.T) {
	url := serveDemo(t, true)
	dbPath := filepath.Join(t.TempDir(), "history.db")

	report, err := Run(context.Background(), inspectorConfig(url, true), &Options{RecordTo: dbPath})
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)

	run, err := history.LoadLatestFrom(dbPath)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, run.ID)
	assert.Equal(t, url, run.BaseURL)
	assert.Equal(t, report.Tools, run.Tools)
	assert.Equal(t, report.ReportedEndpoint, run.ReportedEndpoint)
	assert.Equal(t, report.SuggestedEndpoint, run.SuggestedEndpoint)
	assert.True(t, run.Recovered)
	assert.Equal(t, "recovered", run.Status())
}

func TestReportMarkdown(t *testing.T) {
	report := &Report{
		BaseURL:           "http://127.0.0.1:8000/sse",
		Tools:             []string{"add"},
		Error:             "404 Not Found",
		ReportedEndpoint:  "/127.0.0.1/messages/1",
		SuggestedEndpoint: "http://127.0.0.1:8000/messages/1",
		Recovered:         true,
		Duration:          1234 * time.Millisecond,
	}
	md := report.Markdown()
	assert.Contains(t, md, "# Inspection of http://127.0.0.1:8000/sse")
	assert.Contains(t, md, "- status: recovered\n")
	assert.Contains(t, md, "- duration: 1.234s\n")
	assert.Contains(t, md, "- suggested endpoint: `http://127.0.0.1:8000/messages/1`\n")
	assert.Contains(t, md, "## Tools (1)\n\n- add\n")
}
