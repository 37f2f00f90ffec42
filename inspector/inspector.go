// Package inspector lists the tools of an MCP server reached over HTTP+SSE
// and diagnoses servers whose advertised message endpoint cannot be used as
// given.
package inspector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dhamidi/mcpdemo"
	"github.com/dhamidi/mcpdemo/config"
	"github.com/dhamidi/mcpdemo/endpoint"
	"github.com/dhamidi/mcpdemo/history"
	rawmcp "github.com/dhamidi/mcpdemo/mcp"
	"github.com/dhamidi/mcpdemo/mcp/jsonrpc2"
)

// maxLoggedResult bounds the size of results in call logs.
const maxLoggedResult = 500

type Options struct {
	Logger     *slog.Logger
	HTTPClient *http.Client
	// RecordTo is the history database runs are saved to. Empty disables
	// recording.
	RecordTo string
}

func (opts *Options) logger() *slog.Logger {
	if opts == nil || opts.Logger == nil {
		return slog.Default()
	}
	return opts.Logger
}

func (opts *Options) httpClient() *http.Client {
	if opts == nil || opts.HTTPClient == nil {
		return http.DefaultClient
	}
	return opts.HTTPClient
}

// Report is the outcome of an inspection.
type Report struct {
	RunID   string // set when the run was recorded
	BaseURL string
	Tools   []string

	// Error is the failure of the first attempt.
	Error             string
	ReportedEndpoint  string
	SuggestedEndpoint string
	Recovered         bool

	StartedAt time.Time
	Duration  time.Duration
}

func (r *Report) Status() string {
	switch {
	case r.Recovered:
		return "recovered"
	case r.Error != "":
		return "failed"
	default:
		return "ok"
	}
}

// Markdown renders the report for display.
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Inspection of %s\n\n", r.BaseURL)
	fmt.Fprintf(&b, "- status: %s\n", r.Status())
	fmt.Fprintf(&b, "- duration: %s\n", r.Duration.Round(time.Millisecond))
	if r.Error != "" {
		fmt.Fprintf(&b, "- error: %s\n", r.Error)
	}
	if r.ReportedEndpoint != "" {
		fmt.Fprintf(&b, "- reported endpoint: `%s`\n", r.ReportedEndpoint)
		fmt.Fprintf(&b, "- suggested endpoint: `%s`\n", r.SuggestedEndpoint)
	}
	if r.RunID != "" {
		fmt.Fprintf(&b, "- run: %s\n", r.RunID)
	}
	fmt.Fprintf(&b, "\n## Tools (%d)\n\n", len(r.Tools))
	for _, name := range r.Tools {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	return b.String()
}

// Run connects to cfg.URL and lists the server's tools. When that fails it
// reads the endpoint the server announces, logs its normalized form and,
// if cfg.Retry is set, lists the tools through the normalized endpoint.
//
// The report is returned even when the inspection fails.
func Run(ctx context.Context, cfg config.Inspector, opts *Options) (*Report, error) {
	logger := opts.logger()
	report := &Report{BaseURL: cfg.URL, Tools: []string{}, StartedAt: time.Now()}

	err := inspect(ctx, cfg, opts, report)
	report.Duration = time.Since(report.StartedAt)
	if opts != nil && opts.RecordTo != "" {
		if recErr := record(report, opts.RecordTo); recErr != nil {
			logger.Warn("failed to record inspection", "path", opts.RecordTo, "error", recErr)
		}
	}
	return report, err
}

func inspect(ctx context.Context, cfg config.Inspector, opts *Options, report *Report) error {
	logger := opts.logger().With("url", cfg.URL)

	tools, err := listTools(ctx, cfg, opts)
	if err == nil {
		report.Tools = tools
		logger.Info("listed tools", "count", len(tools))
		return nil
	}
	report.Error = err.Error()
	logger.Error("listing tools failed", "error", err)
	firstErr := fmt.Errorf("inspector: %w", err)

	dialCtx, cancel := withTimeout(ctx, cfg.Timeout)
	defer cancel()
	transport, dialErr := rawmcp.DialSSE(dialCtx, cfg.URL, &rawmcp.SSEOptions{
		HTTPClient: opts.httpClient(),
		Resolve:    endpoint.Normalize,
		Logger:     opts.logger(),
	})
	if dialErr != nil {
		return errors.Join(firstErr, fmt.Errorf("inspector: reading endpoint: %w", dialErr))
	}
	session := rawmcp.NewSession(transport, rawmcp.Implementation{Name: mcpdemo.Name + "-inspector", Version: mcpdemo.Version})
	defer session.Close()

	report.ReportedEndpoint = transport.ReportedEndpoint()
	report.SuggestedEndpoint = transport.Endpoint()
	logger.Info("server reported endpoint", "reported", report.ReportedEndpoint, "normalized", report.SuggestedEndpoint)

	if !cfg.Retry {
		return firstErr
	}

	session.Use(logRawCalls(opts.logger()))
	retryCtx, cancelRetry := withTimeout(ctx, cfg.Timeout)
	defer cancelRetry()
	if _, err := session.Initialize(retryCtx); err != nil {
		return errors.Join(firstErr, fmt.Errorf("inspector: retry with %s: %w", report.SuggestedEndpoint, err))
	}
	listed, err := session.ListTools(retryCtx)
	if err != nil {
		return errors.Join(firstErr, fmt.Errorf("inspector: retry with %s: %w", report.SuggestedEndpoint, err))
	}
	report.Tools = listed.Names()
	report.Recovered = true
	logger.Info("listed tools through normalized endpoint", "count", len(report.Tools))
	return nil
}

// listTools connects with the go-sdk SSE client and lists all tools.
func listTools(ctx context.Context, cfg config.Inspector, opts *Options) ([]string, error) {
	ctx, cancel := withTimeout(ctx, cfg.Timeout)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: mcpdemo.Name + "-inspector", Version: mcpdemo.Version}, nil)
	client.AddSendingMiddleware(logCalls(opts.logger()))

	session, err := client.Connect(ctx, &mcp.SSEClientTransport{Endpoint: cfg.URL, HTTPClient: opts.httpClient()}, nil)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	names := []string{}
	params := &mcp.ListToolsParams{}
	for {
		res, err := session.ListTools(ctx, params)
		if err != nil {
			return nil, err
		}
		for _, tool := range res.Tools {
			names = append(names, tool.Name)
		}
		if res.NextCursor == "" {
			return names, nil
		}
		params.Cursor = res.NextCursor
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func record(report *Report, dbPath string) error {
	run, err := history.New(report.BaseURL)
	if err != nil {
		return err
	}
	run.Tools = report.Tools
	run.Error = report.Error
	run.ReportedEndpoint = report.ReportedEndpoint
	run.SuggestedEndpoint = report.SuggestedEndpoint
	run.Recovered = report.Recovered
	run.Duration = report.Duration
	run.CreatedAt = report.StartedAt
	if err := history.SaveTo(run, dbPath); err != nil {
		return err
	}
	report.RunID = run.ID
	return nil
}

// logCalls logs every request sent by a go-sdk client.
func logCalls(logger *slog.Logger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			logger.Debug(">>> CALL", "method", method, "params", mcpdemo.AsJSON(req.GetParams()))
			result, err := next(ctx, method, req)
			if err != nil {
				logger.Debug("<<< EXCEPTION", "method", method, "error", err)
				return result, err
			}
			logger.Debug("<<< RETURN", "method", method, "result", mcpdemo.CropText(mcpdemo.AsJSON(result), maxLoggedResult))
			return result, nil
		}
	}
}

// logRawCalls is logCalls for the diagnostic client.
func logRawCalls(logger *slog.Logger) jsonrpc2.Interceptor {
	return func(ctx context.Context, method string, params, result interface{}, next jsonrpc2.Invoker) error {
		logger.Debug(">>> CALL", "method", method, "params", mcpdemo.AsJSON(params))
		if err := next(ctx, method, params, result); err != nil {
			logger.Debug("<<< EXCEPTION", "method", method, "error", err)
			return err
		}
		logger.Debug("<<< RETURN", "method", method, "result", mcpdemo.CropText(mcpdemo.AsJSON(result), maxLoggedResult))
		return nil
	}
}
