package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// SSE event names for live sessions.
const (
	eventState  = "state"
	eventClosed = "closed"
)

// SSEWriter writes a Server-Sent Events stream. Events carry increasing ids so
// clients can tell whether they missed any after reconnecting.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	nextID  uint64
}

// NewSSEWriter sends the stream headers and, when retry is positive, the client
// reconnection delay.
func NewSSEWriter(w http.ResponseWriter, retry time.Duration) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if retry > 0 {
		if _, err := fmt.Fprintf(w, "retry: %d\n\n", retry.Milliseconds()); err != nil {
			return nil, fmt.Errorf("failed to write retry hint: %w", err)
		}
	}
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher, nextID: 1}, nil
}

// WriteEvent sends data as JSON under the given event name.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}

	id := strconv.FormatUint(s.nextID, 10)
	if _, err := fmt.Fprintf(s.w, "id: %s\nevent: %s\ndata: %s\n\n", id, event, payload); err != nil {
		return err
	}
	s.nextID++
	s.flusher.Flush()
	return nil
}

// WriteComment sends a comment line. Clients ignore it; proxies see traffic.
func (s *SSEWriter) WriteComment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
