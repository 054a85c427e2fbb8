package api_test

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain enables goroutine leak detection for the whole package; the
// SSE path spawns no goroutines of its own and this keeps it that way.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// httptest keep-alive connections outlive individual tests
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}
