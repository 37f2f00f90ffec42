// Package harness starts the demo server, waits until it accepts
// connections and runs the inspector against it.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/dhamidi/mcpdemo/config"
	"github.com/dhamidi/mcpdemo/inspector"
)

const (
	pollInterval = 100 * time.Millisecond
	dialTimeout  = 500 * time.Millisecond
)

type Options struct {
	Logger *slog.Logger
	Output io.Writer // server output; default os.Stderr
	Env    []string  // extra environment for the server process

	HTTPClient *http.Client
	RecordTo   string // history database; empty disables recording
}

func (opts *Options) logger() *slog.Logger {
	if opts == nil || opts.Logger == nil {
		return slog.Default()
	}
	return opts.Logger
}

// Run starts the server unless cfg.SkipServer is set, waits for it and
// inspects it. The server is stopped before Run returns.
func Run(ctx context.Context, cfg config.Harness, opts *Options) (*inspector.Report, error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.logger()

	if !cfg.SkipServer {
		command := cfg.ServerCommand
		if len(command) == 0 {
			var err error
			if command, err = DefaultServerCommand(cfg.Server); err != nil {
				return nil, err
			}
		}
		proc, err := StartServer(ctx, command, ProcessOptions{
			Env:         opts.Env,
			Output:      opts.Output,
			Logger:      logger,
			StopTimeout: cfg.StopTimeout,
		})
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := proc.Stop(); err != nil {
				logger.Warn("stopping server", "error", err)
			}
		}()
	}

	addr := hostPort(cfg.Inspector.URL, cfg.Server.Addr())
	if err := WaitForPort(ctx, addr, cfg.ReadyTimeout); err != nil {
		logger.Warn("server port not ready, inspecting anyway", "addr", addr, "error", err)
	}

	health, err := HealthCheck(ctx, opts.HTTPClient, cfg.Inspector.URL, cfg.HealthTimeout)
	if err != nil {
		logger.Warn("health check failed", "url", cfg.Inspector.URL, "error", err)
	} else {
		logger.Info("health check", "url", cfg.Inspector.URL, "status", health.Status, "content_type", health.ContentType)
	}

	return inspector.Run(ctx, cfg.Inspector, &inspector.Options{
		Logger:     logger,
		HTTPClient: opts.HTTPClient,
		RecordTo:   opts.RecordTo,
	})
}

// DefaultServerCommand runs this binary's server subcommand with cfg.
func DefaultServerCommand(cfg config.Server) ([]string, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("harness: locating own binary: %w", err)
	}
	return append([]string{exe}, ServerArgs(cfg)...), nil
}

// ServerArgs returns the server subcommand's arguments for cfg.
func ServerArgs(cfg config.Server) []string {
	args := []string{
		"server",
		"-host", cfg.Host,
		"-port", strconv.Itoa(cfg.Port),
		"-path", cfg.Path,
		"-transport", cfg.Transport,
	}
	if cfg.EchoHostInEndpoint {
		args = append(args, "-echo-host")
	}
	return args
}

// hostPort returns the host:port of rawURL, or fallback when rawURL has
// none.
func hostPort(rawURL, fallback string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return fallback
	}
	if u.Port() != "" {
		return u.Host
	}
	port := "80"
	if u.Scheme == "https" {
		port = "443"
	}
	return net.JoinHostPort(u.Hostname(), port)
}

// WaitForPort dials addr every 100ms until it accepts a connection or
// timeout passes.
func WaitForPort(ctx context.Context, addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	dialer := &net.Dialer{Timeout: dialTimeout}
	for {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn.Close()
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("harness: %s not reachable after %s: %w", addr, timeout, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Health is what a GET on the server's base URL answered.
type Health struct {
	Status      int
	ContentType string
}

// HealthCheck issues a GET against rawURL and reports the status and
// content type. The body is not read, so event streams are fine.
func HealthCheck(ctx context.Context, client *http.Client, rawURL string, timeout time.Duration) (*Health, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("harness: health check: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("harness: health check: %w", err)
	}
	resp.Body.Close()
	return &Health{Status: resp.StatusCode, ContentType: resp.Header.Get("Content-Type")}, nil
}
