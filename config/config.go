// Package config holds the typed configuration of the demo server, the
// inspector, the harness and the client's server list.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Transport names understood by the demo server and the client.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "http"
)

// Environment variables consulted when a flag is not given.
const (
	EnvURL        = "MCPDEMO_URL"
	EnvSkipServer = "MCPDEMO_SKIP_SERVER"
	EnvHistory    = "MCPDEMO_HISTORY"
)

// Server configures the demo server.
type Server struct {
	Name      string
	Version   string
	Host      string
	Port      int
	Path      string // route of the SSE endpoint
	Transport string

	// EchoHostInEndpoint makes the SSE endpoint event advertise the server's
	// host as an extra leading path segment, reproducing a peer that builds
	// message URLs incorrectly. Only the advertised path changes.
	EchoHostInEndpoint bool
}

// DefaultServer returns the configuration the demo programs agree on when
// nothing else is given.
func DefaultServer() Server {
	return Server{
		Name:      "My MCP",
		Version:   "0.1.0",
		Host:      "127.0.0.1",
		Port:      8000,
		Path:      "/sse",
		Transport: TransportSSE,
	}
}

// Addr returns host:port.
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// BaseURL returns the address clients use to open the SSE stream.
func (s Server) BaseURL() string {
	u := url.URL{Scheme: "http", Host: s.Addr(), Path: s.Path}
	return u.String()
}

// Validate checks the server configuration for obvious mistakes.
func (s Server) Validate() error {
	switch s.Transport {
	case TransportStdio:
		return nil
	case TransportSSE, TransportHTTP:
	default:
		return fmt.Errorf("config: unknown server transport %q", s.Transport)
	}
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", s.Port)
	}
	if s.Path == "" || s.Path[0] != '/' {
		return fmt.Errorf("config: path %q must start with /", s.Path)
	}
	return nil
}

// Inspector configures a single inspection run.
type Inspector struct {
	URL     string
	Retry   bool          // retry against the normalized endpoint after a failure
	Timeout time.Duration // bound for each connection attempt
}

// DefaultInspector targets the default server.
func DefaultInspector() Inspector {
	return Inspector{
		URL:     DefaultServer().BaseURL(),
		Retry:   true,
		Timeout: 10 * time.Second,
	}
}

// Harness configures a harness run: launching the server, waiting for it
// and driving the inspector against it.
type Harness struct {
	Server    Server
	Inspector Inspector

	SkipServer    bool     // assume a server is already running
	ServerCommand []string // defaults to this binary's "server" subcommand

	ReadyTimeout  time.Duration
	HealthTimeout time.Duration
	StopTimeout   time.Duration
}

// DefaultHarness returns the harness defaults.
func DefaultHarness() Harness {
	return Harness{
		Server:        DefaultServer(),
		Inspector:     DefaultInspector(),
		ReadyTimeout:  15 * time.Second,
		HealthTimeout: 2 * time.Second,
		StopTimeout:   2 * time.Second,
	}
}

// StringFromEnv returns flagValue if set, otherwise the value of the
// environment variable, otherwise def.
func StringFromEnv(flagValue, env, def string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

// BoolFromEnv reports whether the environment variable holds a true value
// as understood by strconv.ParseBool.
func BoolFromEnv(env string) bool {
	v, err := strconv.ParseBool(os.Getenv(env))
	return err == nil && v
}

// ErrServerNotFound is returned when a named server is missing from a
// servers file.
var ErrServerNotFound = errors.New("config: server not found")
