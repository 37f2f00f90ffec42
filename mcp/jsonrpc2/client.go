package jsonrpc2

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Request represents a JSON-RPC 2.0 request object.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      interface{} `json:"id,omitempty"`
}

// Response represents a JSON-RPC 2.0 response object.
type Response struct {
	JSONRPC string           `json:"jsonrpc"`
	Result  *json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject     `json:"error,omitempty"`
	ID      interface{}      `json:"id"`
}

// Transport defines the interface for sending and receiving JSON-RPC messages.
// This allows for different communication mechanisms (e.g., SSE, stdio pipes) to be used.
type Transport interface {
	// SendRequest sends a pre-formatted JSON-RPC request and returns the server's response.
	// For notifications (no id) the transport returns as soon as the message is written,
	// with a nil response.
	SendRequest(ctx context.Context, requestPayload []byte) (responsePayload []byte, err error)
}

// ErrorObject represents a JSON-RPC 2.0 error object.
type ErrorObject struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *ErrorObject) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Code, e.Message)
}

// Invoker performs one call. result is nil for notifications.
type Invoker func(ctx context.Context, method string, params interface{}, result interface{}) error

// Interceptor wraps every call and notification made through a Client.
// It must call next to let the request through.
type Interceptor func(ctx context.Context, method string, params interface{}, result interface{}, next Invoker) error

// FormatRequest creates a JSON-RPC request object and marshals it to JSON.
// The id can be a string, number, or null. If id is nil, it will be omitted (for notifications).
func FormatRequest(method string, params interface{}, id interface{}) ([]byte, error) {
	req := Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      id,
	}
	return json.Marshal(req)
}

// Client represents a JSON-RPC 2.0 client.
// It manages request IDs and uses a Transport for communication.
type Client struct {
	transport Transport

	mu           sync.Mutex // Protects nextID and interceptors
	nextID       uint64
	interceptors []Interceptor
}

// NewClient creates a new JSON-RPC client with the given transport.
func NewClient(transport Transport) *Client {
	return &Client{
		transport: transport,
		nextID:    1, // Start with ID 1
	}
}

// Use appends interceptors. The first interceptor added is the outermost.
func (c *Client) Use(interceptors ...Interceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interceptors = append(c.interceptors, interceptors...)
}

// chain wraps final with the registered interceptors.
func (c *Client) chain(final Invoker) Invoker {
	c.mu.Lock()
	interceptors := append([]Interceptor(nil), c.interceptors...)
	c.mu.Unlock()

	next := final
	for i := len(interceptors) - 1; i >= 0; i-- {
		interceptor, inner := interceptors[i], next
		next = func(ctx context.Context, method string, params, result interface{}) error {
			return interceptor(ctx, method, params, result, inner)
		}
	}
	return next
}

// Call sends a JSON-RPC request to the server and waits for a response.
// The method is the RPC method name, params is the parameters object (can be nil),
// and result is a pointer where the successful response's result field will be unmarshalled.
func (c *Client) Call(ctx context.Context, method string, params interface{}, result interface{}) error {
	return c.chain(c.call)(ctx, method, params, result)
}

func (c *Client) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	c.mu.Lock()
	currentID := c.nextID
	c.nextID++
	c.mu.Unlock()

	reqBytes, err := FormatRequest(method, params, currentID)
	if err != nil {
		return fmt.Errorf("jsonrpc: failed to format request: %w", err)
	}

	respBytes, err := c.transport.SendRequest(ctx, reqBytes)
	if err != nil {
		return fmt.Errorf("jsonrpc: transport error: %w", err)
	}

	// A JSON-RPC server should always respond to non-notifications.
	if len(respBytes) == 0 {
		return fmt.Errorf("jsonrpc: received empty response from transport for request ID %v", currentID)
	}

	respID, respResult, respError, parseErr := ParseResponse(respBytes)
	if parseErr != nil {
		return fmt.Errorf("jsonrpc: failed to parse response: %w", parseErr)
	}

	// JSON numbers are unmarshalled as float64.
	var responseID uint64
	switch id := respID.(type) {
	case float64:
		responseID = uint64(id)
	case int:
		responseID = uint64(id)
	case int64:
		responseID = uint64(id)
	case uint64:
		responseID = id
	default:
		return fmt.Errorf("jsonrpc: response ID type mismatch (expected numeric, got %T for value %v)", respID, respID)
	}

	if responseID != currentID {
		return fmt.Errorf("jsonrpc: response ID mismatch (expected %v, got %v)", currentID, responseID)
	}

	if respError != nil {
		return fmt.Errorf("jsonrpc: %w", respError)
	}

	if result != nil && respResult != nil {
		err = json.Unmarshal(*respResult, result)
		if err != nil {
			return fmt.Errorf("jsonrpc: failed to unmarshal result: %w", err)
		}
	}

	return nil
}

// Notify sends a JSON-RPC notification (a request without an ID).
// It does not wait for a response from the server.
func (c *Client) Notify(ctx context.Context, method string, params interface{}) error {
	return c.chain(c.notify)(ctx, method, params, nil)
}

func (c *Client) notify(ctx context.Context, method string, params interface{}, _ interface{}) error {
	reqBytes, err := FormatRequest(method, params, nil)
	if err != nil {
		return fmt.Errorf("jsonrpc: failed to format notification: %w", err)
	}

	_, err = c.transport.SendRequest(ctx, reqBytes)
	if err != nil {
		return fmt.Errorf("jsonrpc: transport error during notify: %w", err)
	}

	return nil
}

// ParseResponse unmarshals a JSON response and separates the id, result (as json.RawMessage), and error fields.
func ParseResponse(jsonResponse []byte) (id interface{}, result *json.RawMessage, errResp *ErrorObject, parseErr error) {
	var resp Response
	parseErr = json.Unmarshal(jsonResponse, &resp)
	if parseErr != nil {
		return nil, nil, nil, parseErr
	}
	if resp.JSONRPC != "" && resp.JSONRPC != "2.0" {
		return resp.ID, nil, &ErrorObject{Code: -32600, Message: "Invalid JSON-RPC version"}, nil
	}
	return resp.ID, resp.Result, resp.Error, nil
}

// MessageID extracts the raw id of a JSON-RPC message. It returns "" for
// notifications and for payloads that are not JSON objects.
func MessageID(payload []byte) string {
	var msg struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return ""
	}
	if len(msg.ID) == 0 || string(msg.ID) == "null" {
		return ""
	}
	return string(msg.ID)
}

// IsResponse reports whether payload is a response: it has an id and no method.
func IsResponse(payload []byte) bool {
	var msg struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return false
	}
	return msg.Method == "" && MessageID(payload) != ""
}
