// Package goroutine keeps a panicking worker from taking the whole run down.
package goroutine

import (
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"
)

const (
	// StackTraceBufferSize is the buffer size for stack trace collection
	StackTraceBufferSize = 4096
)

// Recover recovers from panics in goroutines and logs them, then runs each
// onPanic hook. It must be deferred directly. If logger is nil, the panic is
// written to stderr.
func Recover(name string, logger *zap.SugaredLogger, onPanic ...func()) {
	r := recover()
	if r == nil {
		return
	}

	buf := make([]byte, StackTraceBufferSize)
	n := runtime.Stack(buf, false)

	if logger != nil {
		logger.Errorw("Goroutine panic recovered",
			"goroutine", name,
			"panic", r,
			"stack", string(buf[:n]))
	} else {
		fmt.Fprintf(os.Stderr, "PANIC in goroutine %s (no logger): %v\n%s\n",
			name, r, string(buf[:n]))
	}

	for _, fn := range onPanic {
		fn()
	}
}
