package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/dhamidi/mcpdemo"
	"github.com/dhamidi/mcpdemo/config"
)

// handleClientCommand calls the demo tools on a server. Without -config it
// launches this binary's own stdio server.
func handleClientCommand(args []string) {
	var (
		configPath string
		serverName string
		opts       mcpdemo.ClientOptions
		raw        bool
		pretty     bool
		verbose    bool
	)

	clientCmd := flag.NewFlagSet("client", flag.ExitOnError)
	clientCmd.StringVar(&configPath, "config", "", "Servers file (YAML or JSON, mcpServers layout)")
	clientCmd.StringVar(&serverName, "server", "", "Name of the server in the servers file")
	clientCmd.StringVar(&opts.Name, "name", "", "Name passed to greet_tool")
	clientCmd.BoolVar(&raw, "raw", false, "Use the diagnostic JSON-RPC client instead of the SDK client")
	clientCmd.BoolVar(&pretty, "pretty", false, "Render output as markdown")
	clientCmd.BoolVar(&verbose, "v", false, "Enable debug logging")
	clientCmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mcpdemo client [flags]\n")
		fmt.Fprintf(os.Stderr, "Calls greet_tool and spell_casting_tool and prints their results.\n")
		clientCmd.PrintDefaults()
	}
	clientCmd.Parse(args)
	if clientCmd.NArg() != 0 {
		clientCmd.Usage()
		die("Error: 'client' does not take positional arguments")
	}

	opts.Logger = newLogger(verbose)
	opts.Display = newDisplay(pretty)

	entry, err := selectServer(configPath, serverName)
	if err != nil {
		die("Error: %v", err)
	}

	ctx, stop := signalContext()
	defer stop()

	if raw {
		transport, err := mcpdemo.RawTransportFor(ctx, entry, opts.Logger)
		if err != nil {
			die("Error: %v", err)
		}
		if err := mcpdemo.RunRawClient(ctx, transport, opts); err != nil {
			die("Error: %v", err)
		}
		return
	}

	transport, err := mcpdemo.TransportFor(entry)
	if err != nil {
		die("Error: %v", err)
	}
	if err := mcpdemo.RunClient(ctx, transport, opts); err != nil {
		die("Error: %v", err)
	}
}

// selectServer picks the server entry named by name from the servers file
// at path. An empty path selects this binary's own server; an empty name
// is allowed when the file holds a single server.
func selectServer(path, name string) (config.ServerEntry, error) {
	if path == "" {
		return mcpdemo.SelfEntry()
	}
	servers, err := config.LoadServers(afero.NewOsFs(), path)
	if err != nil {
		return config.ServerEntry{}, err
	}
	if name == "" {
		names := servers.Names()
		if len(names) != 1 {
			return config.ServerEntry{}, fmt.Errorf("-server is required, choose one of: %s", strings.Join(names, ", "))
		}
		name = names[0]
	}
	return servers.Lookup(name)
}
