package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// cacheSweepInterval is how often evicted cache entries are dropped.
	cacheSweepInterval = 10 * time.Minute
)
