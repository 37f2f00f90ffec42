package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dhamidi/mcpdemo/history"
)

// handleHistoryCommand processes subcommands for the 'history' feature.
func handleHistoryCommand(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: mcpdemo history <list|latest|show> [arguments]")
		log.Fatal("Error: No history subcommand provided.")
	}

	subcommand := args[0]
	remainingArgs := args[1:]

	var (
		historyFile string
		runID       string
		pretty      bool
	)
	historyCmd := flag.NewFlagSet(subcommand, flag.ExitOnError)
	historyCmd.StringVar(&historyFile, "history", "", "History database (default $MCPDEMO_HISTORY or "+history.DefaultDatabasePath+")")
	historyCmd.BoolVar(&pretty, "pretty", false, "Render output as markdown")
	if subcommand == "show" {
		historyCmd.StringVar(&runID, "id", "", "ID of the run to show")
	}
	historyCmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mcpdemo history %s [flags]\n", subcommand)
		historyCmd.PrintDefaults()
	}
	historyCmd.Parse(remainingArgs)
	if historyCmd.NArg() != 0 {
		historyCmd.Usage()
		log.Fatalf("Error: '%s' does not take positional arguments", subcommand)
	}
	dbPath := historyPath(historyFile)
	display := newDisplay(pretty)

	switch subcommand {
	case "list":
		runs, err := history.ListRuns(dbPath)
		if err != nil {
			log.Fatalf("Error listing runs: %v", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs found.")
			return
		}
		if err := display.Display(formatRunList(runs)); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "latest", "show":
		var run *history.Run
		var err error
		if subcommand == "latest" {
			run, err = history.LoadLatestFrom(dbPath)
		} else {
			if runID == "" {
				historyCmd.Usage()
				log.Fatal("Error: --id flag is required for 'show'")
			}
			run, err = history.LoadFrom(runID, dbPath)
		}
		if err != nil {
			log.Fatalf("Error loading run: %v", err)
		}
		if err := display.Display(formatRun(run)); err != nil {
			log.Fatalf("Error: %v", err)
		}

	default:
		fmt.Fprintf(os.Stderr, "Usage: mcpdemo history <list|latest|show> [arguments]\n")
		log.Fatalf("Error: Unknown history subcommand '%s'", subcommand)
	}
}

func formatRunList(runs []history.RunMetadata) string {
	var b strings.Builder
	b.WriteString("# Runs\n\n")
	for _, run := range runs {
		fmt.Fprintf(&b, "- %s %s %s: %s, %d tools\n",
			run.CreatedAt.Local().Format(time.RFC3339), run.ID, run.BaseURL, run.Status(), run.ToolCount)
	}
	return b.String()
}

func formatRun(run *history.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Run %s\n\n", run.ID)
	fmt.Fprintf(&b, "- url: %s\n", run.BaseURL)
	fmt.Fprintf(&b, "- created: %s\n", run.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(&b, "- duration: %s\n", run.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "- status: %s\n", run.Status())
	if run.Error != "" {
		fmt.Fprintf(&b, "- error: %s\n", run.Error)
	}
	if run.ReportedEndpoint != "" {
		fmt.Fprintf(&b, "- reported endpoint: `%s`\n", run.ReportedEndpoint)
		fmt.Fprintf(&b, "- suggested endpoint: `%s`\n", run.SuggestedEndpoint)
	}
	fmt.Fprintf(&b, "\n## Tools (%d)\n\n", len(run.Tools))
	for _, name := range run.Tools {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	return b.String()
}
