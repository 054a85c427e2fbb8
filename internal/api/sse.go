package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Event names emitted on the generation stream, in the order a client
// can expect them: chunk* [reasoning] (deploy-succeeded|deploy-failed)
// [patch-partial] complete, or error at any point.
const (
	eventChunk           = "chunk"
	eventReasoning       = "reasoning"
	eventDeploySucceeded = "deploy-succeeded"
	eventDeployFailed    = "deploy-failed"
	eventPatchPartial    = "patch-partial"
	eventComplete        = "complete"
	eventError           = "error"
)

// sseWriter streams named events with JSON payloads.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering

	return &sseWriter{w: w, flusher: flusher}, nil
}

// Write sends one event. payload is JSON-encoded; multi-line encodings
// cannot occur since encoding/json never emits raw newlines.
func (s *sseWriter) Write(ctx context.Context, event string, payload any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	// Defensive: the SSE frame breaks if data carries a newline.
	body := strings.ReplaceAll(string(data), "\n", "")

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, body); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	s.flusher.Flush()
	return nil
}
