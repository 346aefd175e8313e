package host

import (
	"io"
	"log/slog"

	"github.com/tetratelabs/wazero"
)

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithLogger sets the logger for rejected guest calls.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxStringSize bounds strings the host imports read from guest memory.
func WithMaxStringSize(n uint32) Option {
	return func(e *Executor) {
		e.maxString = n
	}
}

// WithStderr receives the guest's WASI stderr, where the Go runtime writes
// panics. Discarded by default.
func WithStderr(w io.Writer) Option {
	return func(e *Executor) {
		e.stderr = w
	}
}

// WithRuntimeConfig replaces the wazero runtime configuration.
func WithRuntimeConfig(cfg wazero.RuntimeConfig) Option {
	return func(e *Executor) {
		e.runtimeConfig = cfg
	}
}
