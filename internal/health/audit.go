// Package health provides readiness checkers for the docflow server.
package health

import (
	"context"
	"fmt"

	"github.com/onnwee/docflow/internal/tracing"
)

// Verifier recomputes an audit trail's hash chain.
type Verifier interface {
	Verify() error
}

// AuditChainChecker reports unhealthy when the audit trail fails verification.
type AuditChainChecker struct {
	trail Verifier
}

// NewAuditChainChecker creates a checker for trail.
func NewAuditChainChecker(trail Verifier) *AuditChainChecker {
	return &AuditChainChecker{trail: trail}
}

// HealthCheck verifies the chain under an audit.verify span.
func (c *AuditChainChecker) HealthCheck(ctx context.Context) (err error) {
	if c.trail == nil {
		return fmt.Errorf("audit trail not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, endSpan := tracing.StartAuditSpan(ctx, tracing.AuditOperationVerify)
	defer func() { endSpan(err) }()

	if err = c.trail.Verify(); err != nil {
		return fmt.Errorf("audit trail verification failed: %w", err)
	}
	return nil
}
