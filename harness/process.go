package harness

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrServerExited is returned when the server process exits right after
// being started.
var ErrServerExited = errors.New("harness: server exited early")

// earlyExitWindow is how long a freshly started server must stay up.
const earlyExitWindow = 500 * time.Millisecond

// OutputPrefix marks forwarded server output.
const OutputPrefix = "[server] "

type ProcessOptions struct {
	Env         []string  // appended to the current environment
	Output      io.Writer // receives the server's output; default os.Stderr
	Logger      *slog.Logger
	StopTimeout time.Duration
}

// Process is a running server subprocess.
type Process struct {
	cmd    *exec.Cmd
	logger *slog.Logger
	stop   time.Duration

	group   errgroup.Group
	exited  chan struct{}
	waitErr error // set before exited is closed
}

// StartServer starts command and forwards its combined output line by line.
// It fails with ErrServerExited if the process does not survive its first
// 500ms.
func StartServer(ctx context.Context, command []string, opts ProcessOptions) (*Process, error) {
	if len(command) == 0 {
		return nil, errors.New("harness: empty server command")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	stop := opts.StopTimeout
	if stop <= 0 {
		stop = 2 * time.Second
	}

	cmd := exec.Command(command[0], command[1:]...)
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		pw.Close()
		return nil, fmt.Errorf("harness: starting server: %w", err)
	}
	logger.Info("server started", "pid", cmd.Process.Pid, "command", command)

	p := &Process{
		cmd:    cmd,
		logger: logger,
		stop:   stop,
		exited: make(chan struct{}),
	}
	p.group.Go(func() error {
		p.waitErr = cmd.Wait()
		pw.Close()
		close(p.exited)
		return nil
	})
	p.group.Go(func() error {
		return forward(pr, out)
	})

	select {
	case <-p.exited:
		p.group.Wait()
		return nil, fmt.Errorf("%w: %v", ErrServerExited, p.waitErr)
	case <-ctx.Done():
		p.Stop()
		return nil, ctx.Err()
	case <-time.After(earlyExitWindow):
		return p, nil
	}
}

func forward(r io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fmt.Fprintf(out, "%s%s\n", OutputPrefix, scanner.Text())
	}
	// Drain so the writer side never blocks.
	io.Copy(io.Discard, r)
	return scanner.Err()
}

// Exited is closed once the process has exited.
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

// Stop sends SIGTERM, waits for the stop timeout and kills the process if
// it is still running. It returns once the output has been forwarded.
func (p *Process) Stop() error {
	select {
	case <-p.exited:
		return p.group.Wait()
	default:
	}

	p.logger.Info("stopping server", "pid", p.cmd.Process.Pid)
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.logger.Warn("failed to signal server", "error", err)
	}

	select {
	case <-p.exited:
	case <-time.After(p.stop):
		p.logger.Warn("server did not stop in time, killing it", "pid", p.cmd.Process.Pid)
		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("harness: killing server: %w", err)
		}
		<-p.exited
	}
	return p.group.Wait()
}
