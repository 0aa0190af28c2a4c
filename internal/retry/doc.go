// Package retry provides automatic retry with exponential backoff for
// transient SQL Server connection failures.
//
// Error classification and backoff are pluggable, so the package also serves
// retry needs beyond the initial connection handshake.
//
// # Example Usage
//
//	classifier := retry.NewSQLServerErrorClassifier()
//	strategy := retry.NewExponentialBackoff(3)
//	executor := retry.NewExecutor(classifier, strategy)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return connectToDatabase(ctx)
//	})
//
// # Error Classification
//
// The ErrorClassifier interface decides which errors are transient
// (retryable) versus fatal. SQLServerErrorClassifier recognizes engine
// error numbers for throttling, failover and deadlocks, plus network-level
// failures such as refused connections and DNS timeouts. Login failures and
// SQL syntax errors are fatal; retrying them only delays the real report.
//
// # Backoff Strategies
//
// The BackoffStrategy interface controls retry timing. ExponentialBackoff
// implements capped exponential delays with jitter.
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. WithOnRetry returns an
// independent configured copy rather than mutating the receiver.
package retry
