// Package config defines service configuration structures and loading hooks.
package config

import (
	"runtime"
)

// Storage backend identifiers.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Storage selects the history backend: "memory" or "postgres".
	Storage string `koanf:"storage"`

	// DatabaseURL is the Postgres connection string; required when
	// Storage is "postgres".
	DatabaseURL string `koanf:"database_url"`

	// DBMaxConns caps the Postgres connection pool.
	DBMaxConns int `koanf:"db_max_conns"`

	// LookupTimeoutMS bounds every repository call made while scoring.
	LookupTimeoutMS int `koanf:"lookup_timeout_ms"`

	// AuditQueueSize bounds the in-memory score audit queue.
	AuditQueueSize int `koanf:"audit_queue_size"`

	// AuditWorkers sets the number of audit writer goroutines.
	AuditWorkers int `koanf:"audit_workers"`

	// DedupeSize sets the size of the settlement/payment idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MemoryAuditCapacity bounds the audit ring kept by the memory backend.
	MemoryAuditCapacity int `koanf:"memory_audit_capacity"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":8080",
		Storage:             StorageMemory,
		DBMaxConns:          10,
		LookupTimeoutMS:     500,
		AuditQueueSize:      10_000,
		AuditWorkers:        runtime.NumCPU(),
		DedupeSize:          100_000,
		MemoryAuditCapacity: 10_000,
	}
}
