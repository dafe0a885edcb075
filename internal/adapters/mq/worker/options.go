// Package worker drains the audit queue and persists score audit records.
package worker

import (
	"github.com/govind-32/TrustFlow/pkg/logger"
)

// Option applies a configuration option to the AuditWriter.
type Option func(*AuditWriter)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *AuditWriter) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *AuditWriter) {
		if logger != nil {
			w.logger = logger
		}
	}
}
