// Package retry retries transient failures with exponential backoff.
//
// pgreap uses it on the pgx connect path only: a drop is authoritative and is
// never retried, while opening the maintenance pool against a server that is
// still starting up or briefly out of connection slots is.
//
//	executor := retry.NewExecutor(
//	    retry.NewPostgreSQLErrorClassifier(),
//	    retry.NewExponentialBackoff(3),
//	    retry.WithOnRetry(func(attempt int, err error, delay time.Duration) { ... }),
//	)
//	err := executor.Execute(ctx, connect)
package retry
