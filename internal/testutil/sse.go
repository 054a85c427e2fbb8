package testutil

import (
	"bufio"
	"strings"
	"testing"
)

// SSEEvent is one parsed server-sent event.
type SSEEvent struct {
	Type string
	Data string
}

// ParseSSE parses an SSE response body into events. Multiple data lines
// join with newline, a blank line terminates an event, and data before
// any event name defaults to "message" per the W3C spec.
func ParseSSE(t *testing.T, body string) []SSEEvent {
	t.Helper()

	var events []SSEEvent
	var current SSEEvent
	var dataLines []string

	flush := func() {
		if current.Type == "" {
			return
		}
		current.Data = strings.Join(dataLines, "\n")
		events = append(events, current)
		current = SSEEvent{}
		dataLines = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.Type = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if current.Type == "" {
				current.Type = "message"
			}
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			flush()
		case strings.HasPrefix(line, ":"):
			// comment, ignored
		default:
			t.Fatalf("unexpected SSE line: %q", line)
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanning SSE stream: %v", err)
	}
	if current.Type != "" {
		t.Fatalf("SSE stream ended mid-event %q", current.Type)
	}
	return events
}

// FindSSE returns the first event of the given type, or nil.
func FindSSE(events []SSEEvent, eventType string) *SSEEvent {
	for i := range events {
		if events[i].Type == eventType {
			return &events[i]
		}
	}
	return nil
}

// FilterSSE returns every event of the given type.
func FilterSSE(events []SSEEvent, eventType string) []SSEEvent {
	var out []SSEEvent
	for _, e := range events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
