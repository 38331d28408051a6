package repository

import "time"

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) SQLiteOption {
	return func(s *SQLiteStore) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}

// WithRetries sets how many times a busy write is retried.
func WithRetries(n int, backoff time.Duration) SQLiteOption {
	return func(s *SQLiteStore) {
		if n >= 0 {
			s.retries = n
		}
		if backoff > 0 {
			s.backoff = backoff
		}
	}
}
