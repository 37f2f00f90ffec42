package mcp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/dhamidi/mcpdemo/mcp/jsonrpc2"
)

// CommandOptions configures StartCommand.
type CommandOptions struct {
	Env         []string // appended to the current environment
	Dir         string
	Logger      *slog.Logger
	StopTimeout time.Duration // how long Close waits before killing; default 5s
}

// CommandTransport implements Transport for a server subprocess that speaks
// newline-delimited JSON-RPC on stdin/stdout. Its stderr is forwarded to
// the logger.
type CommandTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	logger *slog.Logger
	stop   time.Duration

	mu      sync.Mutex // serializes requests
	lines   chan []byte
	readErr error // set before lines is closed

	closed   chan struct{}
	closeErr error
	once     sync.Once
}

// StartCommand starts the given command and sets up pipes for communication.
func StartCommand(command string, args []string, opts *CommandOptions) (*CommandTransport, error) {
	if opts == nil {
		opts = &CommandOptions{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stop := opts.StopTimeout
	if stop <= 0 {
		stop = 5 * time.Second
	}

	cmd := exec.Command(command, args...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		stdinPipe.Close()
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		stdinPipe.Close()
		return nil, fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdinPipe.Close()
		return nil, fmt.Errorf("failed to start command: %w", err)
	}
	logger.Debug("subprocess started", "pid", cmd.Process.Pid, "command", command, "args", args)

	t := &CommandTransport{
		cmd:    cmd,
		stdin:  stdinPipe,
		logger: logger,
		stop:   stop,
		lines:  make(chan []byte),
		closed: make(chan struct{}),
	}
	go t.readStdout(stdoutPipe)
	go t.readStderr(stderrPipe)
	return t, nil
}

func (t *CommandTransport) readStdout(r io.Reader) {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			select {
			case t.lines <- trimmed:
			case <-t.closed:
				return
			}
		}
		if err != nil {
			t.readErr = err
			close(t.lines)
			return
		}
	}
}

func (t *CommandTransport) readStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		t.logger.Info("server stderr", "line", scanner.Text())
	}
}

// SendRequest writes payload followed by a newline and, unless payload is a
// notification, waits for the response carrying the same id. Other messages
// from the server are skipped.
func (t *CommandTransport) SendRequest(ctx context.Context, payload []byte) ([]byte, error) {
	select {
	case <-t.closed:
		return nil, ErrTransportClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	framed := append(append([]byte(nil), payload...), '\n')
	if _, err := t.stdin.Write(framed); err != nil {
		return nil, fmt.Errorf("transport: failed to write payload: %w", err)
	}

	id := jsonrpc2.MessageID(payload)
	if id == "" {
		return nil, nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.closed:
			return nil, ErrTransportClosed
		case line, ok := <-t.lines:
			if !ok {
				return nil, fmt.Errorf("transport: server output ended: %w", t.readErr)
			}
			if jsonrpc2.IsResponse(line) && jsonrpc2.MessageID(line) == id {
				return line, nil
			}
			t.logger.Debug("skipping server message", "payload", string(line))
		}
	}
}

// Close closes stdin of the subprocess, waits for it to exit and kills it
// if it does not exit within the stop timeout.
func (t *CommandTransport) Close() error {
	t.once.Do(func() {
		if err := t.stdin.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			t.closeErr = fmt.Errorf("failed to close subprocess stdin: %w", err)
		}

		waitErr := make(chan error, 1)
		go func() {
			waitErr <- t.cmd.Wait()
		}()

		select {
		case err := <-waitErr:
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				t.logger.Warn("subprocess exited with error", "error", exitErr)
			} else if err != nil && t.closeErr == nil {
				t.closeErr = fmt.Errorf("failed to wait for subprocess: %w", err)
			}
		case <-time.After(t.stop):
			t.logger.Warn("subprocess did not exit in time, killing it", "pid", t.cmd.Process.Pid)
			if err := t.cmd.Process.Kill(); err != nil && t.closeErr == nil {
				t.closeErr = fmt.Errorf("failed to kill subprocess: %w", err)
			}
			<-waitErr
		}
		close(t.closed)
	})
	return t.closeErr
}
