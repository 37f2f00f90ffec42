package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dhamidi/mcpdemo"
	"github.com/dhamidi/mcpdemo/config"
	"github.com/dhamidi/mcpdemo/history"
)

// die prints a formatted error message to stderr and exits with status 1.
func die(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format, a...)
	if !strings.HasSuffix(format, "\n") {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(1)
}

// newLogger installs a text logger on stderr as the default logger. Stdout
// stays free for command output and the stdio transport.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// signalContext is cancelled on interrupt or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newDisplay(pretty bool) mcpdemo.Display {
	return mcpdemo.NewDisplay(os.Stdout, pretty)
}

// historyPath resolves the history database: flag, then environment, then
// the default location.
func historyPath(flagValue string) string {
	return config.StringFromEnv(flagValue, config.EnvHistory, history.DefaultDatabasePath)
}

// headerFlag collects repeated "Name: value" flags.
type headerFlag map[string]string

func (h headerFlag) String() string {
	var pairs []string
	for k, v := range h {
		pairs = append(pairs, k+": "+v)
	}
	return strings.Join(pairs, ", ")
}

func (h headerFlag) Set(value string) error {
	name, val, ok := strings.Cut(value, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("invalid header %q, expected Name: value", value)
	}
	h[name] = strings.TrimSpace(val)
	return nil
}
