package health

import (
	"context"
	"fmt"
	"sync"
)

// WriteErrorChecker tracks whether the last audit write failed.
// Pass Record as the writer sink's report callback. A successful write clears the
// failure; the failure count is kept.
type WriteErrorChecker struct {
	mu       sync.Mutex
	name     string
	lastErr  error
	failures int
}

// NewWriteErrorChecker creates a checker labelled name (e.g. the log file path).
func NewWriteErrorChecker(name string) *WriteErrorChecker {
	return &WriteErrorChecker{name: name}
}

// Record stores the outcome of one write. A nil err marks the writer healthy again.
func (c *WriteErrorChecker) Record(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	if err != nil {
		c.failures++
	}
}

// Failures returns how many write errors have been recorded.
func (c *WriteErrorChecker) Failures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

// HealthCheck returns an error while the most recent write has failed.
func (c *WriteErrorChecker) HealthCheck(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr != nil {
		return fmt.Errorf("%s: %d write failure(s), last: %w", c.name, c.failures, c.lastErr)
	}
	return nil
}
