package cache

import "time"

const (
	ExpiryDefaultInMemory = 30 * time.Minute
	cleanupInterval       = 10 * time.Minute
)
