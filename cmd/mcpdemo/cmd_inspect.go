package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dhamidi/mcpdemo"
	"github.com/dhamidi/mcpdemo/config"
	"github.com/dhamidi/mcpdemo/history"
	"github.com/dhamidi/mcpdemo/inspector"
)

// handleInspectCommand inspects a running server.
func handleInspectCommand(args []string) {
	cfg := config.DefaultInspector()
	headers := headerFlag{}
	var (
		url         string
		record      bool
		historyFile string
		pretty      bool
		verbose     bool
	)

	inspectCmd := flag.NewFlagSet("inspect", flag.ExitOnError)
	inspectCmd.StringVar(&url, "url", "", fmt.Sprintf("SSE URL of the server (default $%s or %s)", config.EnvURL, cfg.URL))
	inspectCmd.BoolVar(&cfg.Retry, "retry", cfg.Retry, "Retry through the normalized endpoint after a failure")
	inspectCmd.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Bound for each connection attempt")
	inspectCmd.Var(headers, "header", "Header sent with every request, as 'Name: value'. Can be used multiple times.")
	inspectCmd.BoolVar(&record, "record", false, "Record the run in the history database")
	inspectCmd.StringVar(&historyFile, "history", "", fmt.Sprintf("History database (default $%s or %s)", config.EnvHistory, history.DefaultDatabasePath))
	inspectCmd.BoolVar(&pretty, "pretty", false, "Render the report as markdown")
	inspectCmd.BoolVar(&verbose, "v", false, "Enable debug logging, including every call")
	inspectCmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mcpdemo inspect [flags]\n")
		fmt.Fprintf(os.Stderr, "Lists the tools of a server reached over SSE.\n")
		inspectCmd.PrintDefaults()
	}
	inspectCmd.Parse(args)
	if inspectCmd.NArg() != 0 {
		inspectCmd.Usage()
		die("Error: 'inspect' does not take positional arguments")
	}
	cfg.URL = config.StringFromEnv(url, config.EnvURL, cfg.URL)

	opts := &inspector.Options{
		Logger:     newLogger(verbose),
		HTTPClient: mcpdemo.HTTPClientWithHeaders(headers),
	}
	if record {
		opts.RecordTo = historyPath(historyFile)
	}

	ctx, stop := signalContext()
	defer stop()

	report, err := inspector.Run(ctx, cfg, opts)
	if displayErr := newDisplay(pretty).Display(report.Markdown()); displayErr != nil {
		die("Error: %v", displayErr)
	}
	if err != nil {
		die("Error: %v", err)
	}
}
