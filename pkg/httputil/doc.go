// Package httputil holds the retry policy shared by registry clients.
//
// Registry clients wrap transient failures (connection errors, 5xx
// responses) with [Retryable]. [Retry] re-runs the operation for those
// errors only, doubling the delay between attempts, and gives up early
// when the context is cancelled:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return client.fetch(ctx, name, &info)
//	})
//
// Permanent failures such as a 404 are returned on the first attempt.
package httputil
