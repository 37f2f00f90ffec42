package main

import (
	"fmt"
	"os"
)

const usageText = `Usage: mcpdemo <command> [arguments]

Commands:
  server    run the demo MCP server (sse, http or stdio)
  client    call the demo tools on a server
  inspect   list a server's tools over SSE and diagnose its message endpoint
  harness   start the server, wait for it and inspect it
  history   list recorded inspections

Run 'mcpdemo <command> -h' for the flags of a command.
`

func usage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	command, args := os.Args[1], os.Args[2:]
	switch command {
	case "server":
		handleServerCommand(args)
	case "client":
		handleClientCommand(args)
	case "inspect":
		handleInspectCommand(args)
	case "harness":
		handleHarnessCommand(args)
	case "history":
		handleHistoryCommand(args)
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		die("Error: unknown command '%s'", command)
	}
}
