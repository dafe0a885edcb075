package postgres

// Option applies a configuration option to the DB.
type Option func(*DB)

// WithMaxConns sets the maximum number of pooled connections.
func WithMaxConns(n int) Option {
	return func(db *DB) {
		if n > 0 {
			db.maxConns = int32(n)
		}
	}
}
