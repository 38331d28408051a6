package api

import "github.com/okian/wakepoint/pkg/logger"

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger used for recovered panics.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxBodyBytes caps the size of a submitted analysis.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.analysesHandler.maxBodyBytes = n
		}
	}
}

// WithIDGenerator replaces the generator of missing analysis ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *Server) {
		if gen != nil {
			s.analysesHandler.newID = gen
		}
	}
}
