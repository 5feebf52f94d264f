// Package httputil provides HTTP utilities for repository clients.
//
// [Policy.Do] re-runs an operation while it fails with a [RetryableError].
// [CheckStatus] classifies response codes so callers only wrap network
// failures themselves:
//
//   - 200: success
//   - 404: [ErrNotFound], never retried
//   - 5xx: retryable
//   - anything else: permanent failure
//
// Usage:
//
//	err := httputil.DefaultPolicy().Do(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    defer resp.Body.Close()
//	    return httputil.CheckStatus(resp.StatusCode)
//	})
//
// Clients built with [NewClient] time out after [DefaultTimeout] unless told
// otherwise.
package httputil
