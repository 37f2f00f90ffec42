package mcp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/dhamidi/mcpdemo/mcp/jsonrpc2"
)

// ResolveFunc turns the endpoint reported by a server into the address
// requests are posted to.
type ResolveFunc func(base, reported string) string

// ResolveReference resolves reported against base per RFC 3986 and nothing
// else. It is the default ResolveFunc.
func ResolveReference(base, reported string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return reported
	}
	ref, err := url.Parse(reported)
	if err != nil {
		return reported
	}
	return baseURL.ResolveReference(ref).String()
}

// SSEOptions configures DialSSE.
type SSEOptions struct {
	HTTPClient *http.Client
	Header     http.Header // sent with every request
	Resolve    ResolveFunc
	Logger     *slog.Logger
}

// SSETransport implements Transport for the HTTP+SSE transport: requests
// are POSTed to the endpoint announced by the server on the event stream,
// responses arrive as "message" events on that stream.
type SSETransport struct {
	base     string
	reported string
	endpoint string

	client *http.Client
	header http.Header
	logger *slog.Logger
	cancel context.CancelFunc
	body   io.ReadCloser

	mu      sync.Mutex
	pending map[string]chan []byte
	closing bool
	readErr error
	done    chan struct{}
	once    sync.Once
}

type sseDial struct {
	resp   *http.Response
	events *eventReader
	first  sseEvent
	err    error
}

// DialSSE opens the event stream at base and waits for the server to
// announce its message endpoint. ctx bounds the dial only; the stream stays
// open until Close.
func DialSSE(ctx context.Context, base string, opts *SSEOptions) (*SSETransport, error) {
	if opts == nil {
		opts = &SSEOptions{}
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resolve := opts.Resolve
	if resolve == nil {
		resolve = ResolveReference
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, base, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("mcp: invalid SSE address %q: %w", base, err)
	}
	req.Header.Set("Accept", "text/event-stream")
	for k, vs := range opts.Header {
		req.Header[k] = vs
	}

	dialed := make(chan sseDial, 1)
	go func() {
		resp, err := client.Do(req)
		if err != nil {
			dialed <- sseDial{err: err}
			return
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			dialed <- sseDial{err: fmt.Errorf("mcp: GET %s: %s", base, resp.Status)}
			return
		}
		events := newEventReader(resp.Body)
		first, err := events.Next()
		if err != nil {
			resp.Body.Close()
			dialed <- sseDial{err: fmt.Errorf("mcp: reading endpoint event from %s: %w", base, err)}
			return
		}
		if first.Name != "endpoint" {
			resp.Body.Close()
			dialed <- sseDial{err: fmt.Errorf("mcp: expected endpoint event from %s, got %q", base, first.Name)}
			return
		}
		dialed <- sseDial{resp: resp, events: events, first: first}
	}()

	var d sseDial
	select {
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	case d = <-dialed:
	}
	if d.err != nil {
		cancel()
		return nil, d.err
	}

	reported := strings.TrimSpace(d.first.Data)
	t := &SSETransport{
		base:     base,
		reported: reported,
		endpoint: resolve(base, reported),
		client:   client,
		header:   opts.Header,
		logger:   logger,
		cancel:   cancel,
		body:     d.resp.Body,
		pending:  make(map[string]chan []byte),
		done:     make(chan struct{}),
	}
	logger.Debug("sse endpoint announced", "base", base, "reported", t.reported, "endpoint", t.endpoint)
	go t.readLoop(d.events)
	return t, nil
}

// ReportedEndpoint returns the endpoint exactly as the server announced it.
func (t *SSETransport) ReportedEndpoint() string { return t.reported }

// Endpoint returns the address requests are posted to.
func (t *SSETransport) Endpoint() string { return t.endpoint }

func (t *SSETransport) readLoop(events *eventReader) {
	for {
		evt, err := events.Next()
		if err != nil {
			t.mu.Lock()
			if t.closing {
				err = ErrTransportClosed
			}
			t.readErr = err
			t.mu.Unlock()
			close(t.done)
			return
		}
		if evt.Name != "" && evt.Name != "message" {
			t.logger.Debug("ignoring sse event", "event", evt.Name)
			continue
		}

		payload := []byte(evt.Data)
		id := jsonrpc2.MessageID(payload)
		if id == "" || !jsonrpc2.IsResponse(payload) {
			t.logger.Debug("ignoring server message", "payload", evt.Data)
			continue
		}

		t.mu.Lock()
		ch, ok := t.pending[id]
		delete(t.pending, id)
		t.mu.Unlock()
		if ok {
			ch <- payload
		} else {
			t.logger.Debug("response for unknown request", "id", id)
		}
	}
}

func (t *SSETransport) streamErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.readErr == ErrTransportClosed {
		return ErrTransportClosed
	}
	return fmt.Errorf("mcp: event stream ended: %w", t.readErr)
}

func (t *SSETransport) forget(id string) {
	t.mu.Lock()
	delete(t.pending, id)
	t.mu.Unlock()
}

// SendRequest posts payload to the message endpoint and, unless it is a
// notification, waits for the matching response on the event stream.
func (t *SSETransport) SendRequest(ctx context.Context, payload []byte) ([]byte, error) {
	select {
	case <-t.done:
		return nil, t.streamErr()
	default:
	}

	id := jsonrpc2.MessageID(payload)
	var ch chan []byte
	if id != "" {
		ch = make(chan []byte, 1)
		t.mu.Lock()
		t.pending[id] = ch
		t.mu.Unlock()
	}

	body, err := t.post(ctx, payload)
	if err != nil {
		t.forget(id)
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	if len(body) > 0 {
		// Answered inline instead of on the stream.
		t.forget(id)
		return body, nil
	}

	select {
	case <-ctx.Done():
		t.forget(id)
		return nil, ctx.Err()
	case <-t.done:
		t.forget(id)
		return nil, t.streamErr()
	case resp := <-ch:
		return resp, nil
	}
}

// post sends payload to the endpoint. It returns the response body when the
// server answered with JSON directly.
func (t *SSETransport) post(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("mcp: invalid message endpoint %q: %w", t.endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range t.header {
		req.Header[k] = vs
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mcp: POST %s: %w", t.endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("mcp: reading response from %s: %w", t.endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("mcp: POST %s: %s: %s", t.endpoint, resp.Status, strings.TrimSpace(string(data)))
	}
	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType == "application/json" {
		return bytes.TrimSpace(data), nil
	}
	return nil, nil
}

// Close ends the event stream.
func (t *SSETransport) Close() error {
	t.once.Do(func() {
		t.mu.Lock()
		t.closing = true
		t.mu.Unlock()
		t.cancel()
		t.body.Close()
		<-t.done
	})
	return nil
}

type sseEvent struct {
	Name string
	Data string
}

// eventReader splits a text/event-stream body into events.
type eventReader struct {
	scanner *bufio.Scanner
}

func newEventReader(r io.Reader) *eventReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	return &eventReader{scanner: scanner}
}

// Next returns the next complete event. It returns io.EOF when the stream
// ends.
func (r *eventReader) Next() (sseEvent, error) {
	var (
		evt  sseEvent
		data []string
		seen bool
	)
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if line == "" {
			if seen {
				evt.Data = strings.Join(data, "\n")
				return evt, nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			evt.Name = value
			seen = true
		case "data":
			data = append(data, value)
			seen = true
		}
	}
	if err := r.scanner.Err(); err != nil {
		return sseEvent{}, err
	}
	return sseEvent{}, io.EOF
}
