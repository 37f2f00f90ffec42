package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dhamidi/mcpdemo"
	"github.com/dhamidi/mcpdemo/config"
)

// handleServerCommand runs the demo server until interrupted.
func handleServerCommand(args []string) {
	cfg := config.DefaultServer()
	var verbose bool

	serverCmd := flag.NewFlagSet("server", flag.ExitOnError)
	serverCmd.StringVar(&cfg.Name, "name", cfg.Name, "Server name reported to clients")
	serverCmd.StringVar(&cfg.Host, "host", cfg.Host, "Address to listen on")
	serverCmd.IntVar(&cfg.Port, "port", cfg.Port, "Port to listen on")
	serverCmd.StringVar(&cfg.Path, "path", cfg.Path, "Route of the SSE endpoint")
	serverCmd.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport: sse, http or stdio")
	serverCmd.BoolVar(&cfg.EchoHostInEndpoint, "echo-host", false, "Advertise the SSE message endpoint with the host as an extra leading path segment")
	serverCmd.BoolVar(&verbose, "v", false, "Enable debug logging")
	serverCmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mcpdemo server [flags]\n")
		fmt.Fprintf(os.Stderr, "Runs the demo MCP server. The streamable HTTP transport is served at %s as well.\n", mcpdemo.StreamablePath)
		serverCmd.PrintDefaults()
	}
	serverCmd.Parse(args)
	if serverCmd.NArg() != 0 {
		serverCmd.Usage()
		die("Error: 'server' does not take positional arguments")
	}

	logger := newLogger(verbose)
	ctx, stop := signalContext()
	defer stop()

	if err := mcpdemo.Serve(ctx, cfg, &mcpdemo.ServerOptions{Logger: logger}); err != nil {
		die("Error: %v", err)
	}
}
