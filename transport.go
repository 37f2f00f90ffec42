package mcpdemo

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dhamidi/mcpdemo/config"
	rawmcp "github.com/dhamidi/mcpdemo/mcp"
)

// SelfServerArgs starts this binary as a stdio server.
var SelfServerArgs = []string{"server", "-transport", config.TransportStdio}

// SelfEntry describes this binary's own stdio server.
func SelfEntry() (config.ServerEntry, error) {
	exe, err := os.Executable()
	if err != nil {
		return config.ServerEntry{}, fmt.Errorf("client: locating own binary: %w", err)
	}
	return config.ServerEntry{
		Transport: config.TransportStdio,
		Command:   exe,
		Args:      SelfServerArgs,
	}, nil
}

// TransportFor returns the go-sdk transport reaching entry.
func TransportFor(entry config.ServerEntry) (mcp.Transport, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	switch entry.Transport {
	case config.TransportStdio:
		cmd := exec.Command(entry.Command, entry.Args...)
		cmd.Dir = entry.Cwd
		if len(entry.Env) > 0 {
			cmd.Env = append(os.Environ(), entry.Environ()...)
		}
		cmd.Stderr = os.Stderr
		return &mcp.CommandTransport{Command: cmd}, nil
	case config.TransportSSE:
		return &mcp.SSEClientTransport{
			Endpoint:   entry.URL,
			HTTPClient: HTTPClientWithHeaders(entry.RequestHeaders()),
		}, nil
	case config.TransportHTTP:
		return &mcp.StreamableClientTransport{
			Endpoint:   entry.URL,
			HTTPClient: HTTPClientWithHeaders(entry.RequestHeaders()),
		}, nil
	}
	return nil, fmt.Errorf("client: unsupported transport %q", entry.Transport)
}

// RawTransportFor returns the diagnostic client's transport reaching entry.
// The streamable HTTP transport is not supported by it.
func RawTransportFor(ctx context.Context, entry config.ServerEntry, logger *slog.Logger) (rawmcp.Transport, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	switch entry.Transport {
	case config.TransportStdio:
		return rawmcp.StartCommand(entry.Command, entry.Args, &rawmcp.CommandOptions{
			Env:    entry.Environ(),
			Dir:    entry.Cwd,
			Logger: logger,
		})
	case config.TransportSSE:
		header := http.Header{}
		for k, v := range entry.RequestHeaders() {
			header.Set(k, v)
		}
		return rawmcp.DialSSE(ctx, entry.URL, &rawmcp.SSEOptions{Header: header, Logger: logger})
	}
	return nil, fmt.Errorf("client: raw client does not support transport %q", entry.Transport)
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

// HTTPClientWithHeaders returns a client sending headers with every
// request.
func HTTPClientWithHeaders(headers map[string]string) *http.Client {
	if len(headers) == 0 {
		return http.DefaultClient
	}
	return &http.Client{Transport: &headerTransport{base: http.DefaultTransport, headers: headers}}
}
