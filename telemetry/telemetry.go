// Package telemetry provides structured logging, per-tick performance
// sampling, and CSV export for a running world — grounded on the
// telemetry package's slog-based logging, perf sampler, and gocsv-backed
// OutputManager.
package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu        sync.RWMutex
	logWriter io.Writer = os.Stderr
	logger              = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// SetLogWriter redirects process-wide log output, rebuilding the logger
// around the new writer. Passing nil restores stderr.
func SetLogWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	logWriter = w
	logger = slog.New(slog.NewTextHandler(w, nil))
}

// Logf writes a freeform informational line, mirroring fmt.Sprintf-style
// call sites scattered through the prior implementation's ad hoc logging.
func Logf(format string, args ...interface{}) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Info(fmt.Sprintf(format, args...))
}

// LogInvariantViolation logs a fatal-assertion-class invariant failure
// (cell<->organism map divergence, grid bounds violation) at Error level
// with structured attributes, for server-side diagnosis without a crash.
func LogInvariantViolation(kind string, err error) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Error("invariant_violation", "kind", kind, "error", err)
}
