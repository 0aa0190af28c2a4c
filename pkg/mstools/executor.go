package mstools

import "context"

// BatchExecutor runs one batch against the destination session.
//
// Ordinary SQL failures (constraint violations, missing objects, statement
// timeouts) are reported through the ok/errMsg pair so the scheduler can
// retry them in a later pass. The error return is reserved for catastrophic,
// non-retryable conditions: the session is gone or the run's context is
// cancelled. A non-nil error aborts the enclosing stage.
//
// Implementations must never panic for ordinary SQL errors.
type BatchExecutor interface {
	ExecuteBatch(ctx context.Context, batchText string) (ok bool, errMsg string, err error)
}

// BatchExecutorFunc adapts a function to the BatchExecutor interface.
type BatchExecutorFunc func(ctx context.Context, batchText string) (bool, string, error)

// ExecuteBatch calls f(ctx, batchText).
func (f BatchExecutorFunc) ExecuteBatch(ctx context.Context, batchText string) (bool, string, error) {
	return f(ctx, batchText)
}
