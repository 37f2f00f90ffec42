package mcpdemo

import (
	"bytes"
	"net"
	"net/http"
)

// echoHostInEndpoint makes h advertise its message endpoint with the
// request's host name as the first path segment, e.g.
// /127.0.0.1/sse?sessionid=X. The route itself is not moved, so clients
// that resolve the endpoint verbatim post to a path that does not exist.
func echoHostInEndpoint(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			h.ServeHTTP(w, r)
			return
		}
		host, _, err := net.SplitHostPort(r.Host)
		if err != nil {
			host = r.Host
		}
		h.ServeHTTP(&hostEchoWriter{ResponseWriter: w, host: host}, r)
	})
}

// hostEchoWriter rewrites the first event written through it.
type hostEchoWriter struct {
	http.ResponseWriter
	host string
	buf  []byte
	done bool
}

func (w *hostEchoWriter) Write(p []byte) (int, error) {
	if w.done {
		return w.ResponseWriter.Write(p)
	}
	w.buf = append(w.buf, p...)
	end := bytes.Index(w.buf, []byte("\n\n"))
	if end < 0 {
		return len(p), nil
	}
	w.done = true
	event, rest := w.buf[:end+2], w.buf[end+2:]
	w.buf = nil
	if _, err := w.ResponseWriter.Write(prefixEndpoint(event, w.host)); err != nil {
		return 0, err
	}
	if len(rest) > 0 {
		if _, err := w.ResponseWriter.Write(rest); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (w *hostEchoWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *hostEchoWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// prefixEndpoint inserts /host in front of a path-only data line of an
// endpoint event. Other events are returned unchanged.
func prefixEndpoint(event []byte, host string) []byte {
	if !bytes.Contains(event, []byte("event: endpoint")) {
		return event
	}
	lines := bytes.Split(event, []byte("\n"))
	for i, line := range lines {
		value, ok := bytes.CutPrefix(line, []byte("data:"))
		if !ok {
			continue
		}
		value = bytes.TrimPrefix(value, []byte(" "))
		if bytes.HasPrefix(value, []byte("/")) {
			lines[i] = append([]byte("data: /"+host), value...)
		}
	}
	return bytes.Join(lines, []byte("\n"))
}
