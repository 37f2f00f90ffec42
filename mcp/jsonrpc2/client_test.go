package jsonrpc2

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// transportFunc adapts a function to the Transport interface.
type transportFunc func(ctx context.Context, payload []byte) ([]byte, error)

func (f transportFunc) SendRequest(ctx context.Context, payload []byte) ([]byte, error) {
	return f(ctx, payload)
}

// echoServer answers every request with a result produced by reply.
func echoServer(t *testing.T, reply func(req Request) (interface{}, *ErrorObject)) transportFunc {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req Request
		require.NoError(t, json.Unmarshal(payload, &req))
		if req.ID == nil {
			return nil, nil
		}
		result, rpcErr := reply(req)
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		return json.Marshal(resp)
	}
}

func TestCallSuccess(t *testing.T) {
	var seen Request
	c := NewClient(echoServer(t, func(req Request) (interface{}, *ErrorObject) {
		seen = req
		return map[string]string{"result": "success"}, nil
	}))

	var result map[string]string
	err := c.Call(context.Background(), "testMethod", map[string]interface{}{"param1": "value1"}, &result)
	require.NoError(t, err, "c.Call should succeed without error")
	assert.Equal(t, "success", result["result"], "Result field did not match")
	assert.Equal(t, "2.0", seen.JSONRPC)
	assert.Equal(t, "testMethod", seen.Method)
	assert.EqualValues(t, 1, seen.ID)
}

func TestCallIncrementsIDs(t *testing.T) {
	var ids []interface{}
	c := NewClient(echoServer(t, func(req Request) (interface{}, *ErrorObject) {
		ids = append(ids, req.ID)
		return struct{}{}, nil
	}))

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Call(context.Background(), "ping", nil, nil))
	}
	assert.Equal(t, []interface{}{float64(1), float64(2), float64(3)}, ids)
}

func TestCallServerError(t *testing.T) {
	c := NewClient(echoServer(t, func(req Request) (interface{}, *ErrorObject) {
		return nil, &ErrorObject{Code: -32601, Message: "method not found"}
	}))

	err := c.Call(context.Background(), "missing", nil, nil)
	require.Error(t, err)

	var rpcErr *ErrorObject
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32601, rpcErr.Code)
	assert.Contains(t, err.Error(), "method not found")
}

func TestCallResponseIDMismatch(t *testing.T) {
	c := NewClient(transportFunc(func(ctx context.Context, payload []byte) ([]byte, error) {
		return []byte(`{"jsonrpc":"2.0","id":42,"result":{}}`), nil
	}))
	err := c.Call(context.Background(), "m", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ID mismatch")
}

func TestCallEmptyResponse(t *testing.T) {
	c := NewClient(transportFunc(func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, nil
	}))
	err := c.Call(context.Background(), "m", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestCallTransportError(t *testing.T) {
	boom := errors.New("boom")
	c := NewClient(transportFunc(func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, boom
	}))
	err := c.Call(context.Background(), "m", nil, nil)
	assert.True(t, errors.Is(err, boom))
}

func TestNotifyOmitsID(t *testing.T) {
	var payload string
	c := NewClient(transportFunc(func(ctx context.Context, p []byte) ([]byte, error) {
		payload = string(p)
		return nil, nil
	}))
	require.NoError(t, c.Notify(context.Background(), "notifications/initialized", struct{}{}))
	assert.NotContains(t, payload, `"id"`)
	assert.Contains(t, payload, `"method":"notifications/initialized"`)
}

func TestInterceptorsWrapInOrder(t *testing.T) {
	c := NewClient(echoServer(t, func(req Request) (interface{}, *ErrorObject) {
		return "ok", nil
	}))

	var trace []string
	record := func(name string) Interceptor {
		return func(ctx context.Context, method string, params, result interface{}, next Invoker) error {
			trace = append(trace, name+">"+method)
			err := next(ctx, method, params, result)
			trace = append(trace, name+"<"+method)
			return err
		}
	}
	c.Use(record("outer"), record("inner"))

	var result string
	require.NoError(t, c.Call(context.Background(), "tools/list", nil, &result))
	require.NoError(t, c.Notify(context.Background(), "notifications/initialized", nil))

	assert.Equal(t, "ok", result)
	assert.Equal(t, strings.Split("outer>tools/list inner>tools/list inner<tools/list outer<tools/list "+
		"outer>notifications/initialized inner>notifications/initialized inner<notifications/initialized outer<notifications/initialized", " "), trace)
}

func TestParseResponseRejectsVersion(t *testing.T) {
	_, _, errResp, err := ParseResponse([]byte(`{"jsonrpc":"1.0","id":1,"result":{}}`))
	require.NoError(t, err)
	require.NotNil(t, errResp)
	assert.Equal(t, -32600, errResp.Code)
}

func TestMessageID(t *testing.T) {
	assert.Equal(t, "1", MessageID([]byte(`{"jsonrpc":"2.0","id":1,"result":{}}`)))
	assert.Equal(t, `"abc"`, MessageID([]byte(`{"id":"abc"}`)))
	assert.Equal(t, "", MessageID([]byte(`{"method":"notifications/message"}`)))
	assert.Equal(t, "", MessageID([]byte(`{"id":null}`)))
	assert.Equal(t, "", MessageID([]byte(`not json`)))
}

func TestIsResponse(t *testing.T) {
	assert.True(t, IsResponse([]byte(`{"jsonrpc":"2.0","id":1,"result":{}}`)))
	assert.True(t, IsResponse([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":1,"message":"x"}}`)))
	assert.False(t, IsResponse([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)))
	assert.False(t, IsResponse([]byte(`{"jsonrpc":"2.0","method":"notifications/message"}`)))
}
