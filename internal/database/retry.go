package database

import (
	"fmt"
	"time"
)

var retryBackoffs = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// RetryWithBackoff executes a function with exponential backoff retry logic
func RetryWithBackoff(fn func() error, maxRetries int) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if i < maxRetries-1 && i < len(retryBackoffs) {
			time.Sleep(retryBackoffs[i])
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
