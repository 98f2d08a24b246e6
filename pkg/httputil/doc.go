// Package httputil provides retry helpers for the outbound API clients.
//
// # Retry
//
// [Retry] re-runs an operation with exponential backoff, but only when the
// operation marks its failure as transient by wrapping it in a
// [RetryableError]:
//
//   - Network errors (connection refused, timeouts)
//   - 5xx server errors
//   - 429 rate limit responses
//
// Everything else (bad requests, authentication failures, decoding errors)
// is returned on the first attempt:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := http.DefaultClient.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
//
// # Defaults
//
// [RetryWithBackoff] uses 3 attempts and a 1 second initial delay, doubling
// after each failure. The news, image and mailing-list clients all go through
// it via the shared integrations client.
package httputil
