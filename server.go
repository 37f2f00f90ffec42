package mcpdemo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dhamidi/mcpdemo/config"
)

const (
	Name    = "mcpdemo"
	Version = "0.1.0"

	// StreamablePath serves the streamable HTTP transport next to SSE.
	StreamablePath = "/mcp"
)

type ServerOptions struct {
	Logger *slog.Logger
	Tools  ToolBox // defaults to DefaultToolBox
}

func (opts *ServerOptions) logger() *slog.Logger {
	if opts == nil || opts.Logger == nil {
		return slog.Default()
	}
	return opts.Logger
}

// NewServer builds the demo server: its tools, the greeting resource
// template and the greet_user prompt.
func NewServer(cfg config.Server, opts *ServerOptions) *mcp.Server {
	tools := DefaultToolBox()
	if opts != nil && opts.Tools != nil {
		tools = opts.Tools
	}

	server := mcp.NewServer(&mcp.Implementation{Name: cfg.Name, Version: cfg.Version}, nil)
	tools.RegisterAll(server)
	server.AddResourceTemplate(GreetingResource, readGreeting)
	server.AddPrompt(GreetUserPrompt, greetUser)
	return server
}

// Handler serves server over SSE at cfg.Path and over streamable HTTP at
// StreamablePath.
func Handler(cfg config.Server, server *mcp.Server, opts *ServerOptions) http.Handler {
	logger := opts.logger()
	getServer := func(*http.Request) *mcp.Server { return server }

	var sse http.Handler = mcp.NewSSEHandler(getServer, nil)
	if cfg.EchoHostInEndpoint {
		sse = echoHostInEndpoint(sse)
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, sse)
	if cfg.Path != StreamablePath {
		mux.Handle(StreamablePath, mcp.NewStreamableHTTPHandler(getServer, nil))
	}
	return logRequests(logger, mux)
}

func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

// Serve runs the demo server on the transport named by cfg until ctx is
// done.
func Serve(ctx context.Context, cfg config.Server, opts *ServerOptions) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := opts.logger()
	server := NewServer(cfg, opts)

	switch cfg.Transport {
	case config.TransportStdio:
		logger.Info("serving", "transport", cfg.Transport)
		err := server.Run(ctx, &mcp.StdioTransport{})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	case config.TransportSSE, config.TransportHTTP:
		return serveHTTP(ctx, cfg, Handler(cfg, server, opts), logger)
	default:
		return fmt.Errorf("serve: unsupported transport %q", cfg.Transport)
	}
}

func serveHTTP(ctx context.Context, cfg config.Server, handler http.Handler, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	httpServer := &http.Server{
		Handler: handler,
		// Open event streams end when ctx does.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	url := cfg.BaseURL()
	if cfg.Transport == config.TransportHTTP {
		url = "http://" + cfg.Addr() + StreamablePath
	}
	logger.Info("serving", "transport", cfg.Transport, "url", url, "echo_host_in_endpoint", cfg.EchoHostInEndpoint)

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("serve: shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
