package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dhamidi/mcpdemo/config"
	"github.com/dhamidi/mcpdemo/harness"
)

// handleHarnessCommand starts the demo server, inspects it and stops it.
func handleHarnessCommand(args []string) {
	cfg := config.DefaultHarness()
	var (
		url           string
		skipServer    bool
		serverCommand string
		record        bool
		historyFile   string
		pretty        bool
		verbose       bool
	)

	harnessCmd := flag.NewFlagSet("harness", flag.ExitOnError)
	harnessCmd.StringVar(&url, "url", "", fmt.Sprintf("SSE URL to inspect (default $%s or the server's URL)", config.EnvURL))
	harnessCmd.BoolVar(&skipServer, "skip-server", false, fmt.Sprintf("Inspect an already running server (or set $%s)", config.EnvSkipServer))
	harnessCmd.StringVar(&serverCommand, "server-command", "", "Command starting the server, split on spaces (default: this binary's server subcommand)")
	harnessCmd.IntVar(&cfg.Server.Port, "port", cfg.Server.Port, "Port of the server")
	harnessCmd.BoolVar(&cfg.Server.EchoHostInEndpoint, "echo-host", false, "Start the server with a broken advertised endpoint")
	harnessCmd.BoolVar(&cfg.Inspector.Retry, "retry", cfg.Inspector.Retry, "Retry through the normalized endpoint after a failure")
	harnessCmd.DurationVar(&cfg.ReadyTimeout, "ready-timeout", cfg.ReadyTimeout, "How long to wait for the server's port")
	harnessCmd.DurationVar(&cfg.HealthTimeout, "health-timeout", cfg.HealthTimeout, "Timeout of the health check")
	harnessCmd.DurationVar(&cfg.StopTimeout, "stop-timeout", cfg.StopTimeout, "How long to wait for the server to stop before killing it")
	harnessCmd.BoolVar(&record, "record", false, "Record the run in the history database")
	harnessCmd.StringVar(&historyFile, "history", "", fmt.Sprintf("History database (default $%s)", config.EnvHistory))
	harnessCmd.BoolVar(&pretty, "pretty", false, "Render the report as markdown")
	harnessCmd.BoolVar(&verbose, "v", false, "Enable debug logging")
	harnessCmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mcpdemo harness [flags]\n")
		fmt.Fprintf(os.Stderr, "Starts the server, waits until it accepts connections and inspects it.\n")
		harnessCmd.PrintDefaults()
	}
	harnessCmd.Parse(args)
	if harnessCmd.NArg() != 0 {
		harnessCmd.Usage()
		die("Error: 'harness' does not take positional arguments")
	}

	cfg.SkipServer = skipServer || config.BoolFromEnv(config.EnvSkipServer)
	cfg.ServerCommand = strings.Fields(serverCommand)
	cfg.Inspector.URL = config.StringFromEnv(url, config.EnvURL, cfg.Server.BaseURL())

	opts := &harness.Options{Logger: newLogger(verbose)}
	if record {
		opts.RecordTo = historyPath(historyFile)
	}

	ctx, stop := signalContext()
	defer stop()

	report, err := harness.Run(ctx, cfg, opts)
	if report != nil {
		if displayErr := newDisplay(pretty).Display(report.Markdown()); displayErr != nil {
			die("Error: %v", displayErr)
		}
	}
	if err != nil {
		die("Error: %v", err)
	}
}
