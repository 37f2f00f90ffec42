package config

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultServer(t *testing.T) {
	s := DefaultServer()
	assert.Equal(t, "127.0.0.1:8000", s.Addr())
	assert.Equal(t, "http://127.0.0.1:8000/sse", s.BaseURL())
	assert.NoError(t, s.Validate())
	assert.Equal(t, s.BaseURL(), DefaultInspector().URL)
}

func TestServerValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Server)
		wantErr bool
	}{
		{"defaults", func(*Server) {}, false},
		{"stdio ignores path", func(s *Server) { s.Transport = TransportStdio; s.Path = "" }, false},
		{"http", func(s *Server) { s.Transport = TransportHTTP }, false},
		{"unknown transport", func(s *Server) { s.Transport = "tcp" }, true},
		{"relative path", func(s *Server) { s.Path = "sse" }, true},
		{"port out of range", func(s *Server) { s.Port = 70000 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultServer()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultHarness(t *testing.T) {
	h := DefaultHarness()
	assert.Equal(t, 15*time.Second, h.ReadyTimeout)
	assert.Equal(t, 2*time.Second, h.HealthTimeout)
	assert.Equal(t, 2*time.Second, h.StopTimeout)
	assert.False(t, h.SkipServer)
	assert.True(t, h.Inspector.Retry)
}

func TestStringFromEnv(t *testing.T) {
	t.Setenv(EnvURL, "http://env:1/sse")
	assert.Equal(t, "http://flag:1/sse", StringFromEnv("http://flag:1/sse", EnvURL, "def"))
	assert.Equal(t, "http://env:1/sse", StringFromEnv("", EnvURL, "def"))
	t.Setenv(EnvURL, "")
	assert.Equal(t, "def", StringFromEnv("", EnvURL, "def"))
}

func TestBoolFromEnv(t *testing.T) {
	for value, want := range map[string]bool{"1": true, "true": true, "True": true, "0": false, "": false, "yes": false} {
		t.Setenv(EnvSkipServer, value)
		assert.Equal(t, want, BoolFromEnv(EnvSkipServer), "value %q", value)
	}
}

const serversJSON = `{
  "mcpServers": {
    "server_name": {
      "transport": "http",
      "url": "https://api.example.com/mcp",
      "headers": {"X-Trace": "on"},
      "auth": "token123"
    },
    "local_server": {
      "transport": "stdio",
      "command": "mcpdemo",
      "args": ["server", "-transport", "stdio"],
      "env": {"DEBUG": "true"},
      "cwd": "/srv/mcp"
    }
  }
}`

const serversYAML = `
mcpServers:
  events:
    transport: sse
    url: http://127.0.0.1:8000/sse
`

func TestLoadServers(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "servers.json", []byte(serversJSON), 0o644))

	file, err := LoadServers(fsys, "servers.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"local_server", "server_name"}, file.Names())

	want := ServerEntry{
		Transport: TransportStdio,
		Command:   "mcpdemo",
		Args:      []string{"server", "-transport", "stdio"},
		Env:       map[string]string{"DEBUG": "true"},
		Cwd:       "/srv/mcp",
	}
	got, err := file.Lookup("local_server")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Lookup(local_server) mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"DEBUG=true"}, got.Environ())

	remote, err := file.Lookup("server_name")
	require.NoError(t, err)
	wantHeaders := map[string]string{"X-Trace": "on", "Authorization": "Bearer token123"}
	if diff := cmp.Diff(wantHeaders, remote.RequestHeaders()); diff != "" {
		t.Errorf("RequestHeaders mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadServersYAML(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "servers.yaml", []byte(serversYAML), 0o644))

	file, err := LoadServers(fsys, "servers.yaml")
	require.NoError(t, err)
	entry, err := file.Lookup("events")
	require.NoError(t, err)
	assert.Equal(t, TransportSSE, entry.Transport)
	assert.Equal(t, "http://127.0.0.1:8000/sse", entry.URL)

	_, err = file.Lookup("missing")
	assert.True(t, errors.Is(err, ErrServerNotFound))
}

func TestLoadServersErrors(t *testing.T) {
	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"oauth.yaml":   "mcpServers:\n  a:\n    transport: sse\n    url: http://x/sse\n    auth: oauth\n",
		"nocmd.yaml":   "mcpServers:\n  a:\n    transport: stdio\n",
		"nourl.yaml":   "mcpServers:\n  a:\n    transport: http\n",
		"unknown.yaml": "mcpServers:\n  a:\n    transport: carrier-pigeon\n",
		"broken.yaml":  "mcpServers: [",
	}
	for name, body := range files {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(body), 0o644))
	}

	for name := range files {
		t.Run(name, func(t *testing.T) {
			_, err := LoadServers(fsys, name)
			assert.Error(t, err)
		})
	}

	_, err := LoadServers(fsys, "does-not-exist.yaml")
	assert.Error(t, err)
}

func TestRequestHeadersKeepsExplicitAuthorization(t *testing.T) {
	e := ServerEntry{Auth: "t", Headers: map[string]string{"Authorization": "Basic abc"}}
	assert.Equal(t, "Basic abc", e.RequestHeaders()["Authorization"])
}
