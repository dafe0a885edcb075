// Package repository defines the history store contract and errors.
package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithShardCount sets the number of shards in the memory store.
func WithShardCount(count int) Option {
	return func(s *MemoryStore) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithAuditCapacity bounds the audit ring kept by the memory store.
// Oldest records are discarded once the ring is full.
func WithAuditCapacity(capacity int) Option {
	return func(s *MemoryStore) {
		if capacity > 0 {
			s.auditCap = capacity
		}
	}
}
