// Package httpclient provides the single outbound HTTP path for the portal
// client: cookie credentials on every request, an optional bearer token, a
// bounded retry loop for transient failures, and a process-wide broadcast
// when the server reports the session is no longer valid.
//
// # Retry contract
//
// A failure is retried only while the attempt counter is below the ceiling
// (per-request override, else the client-wide default of one retry) and the
// failure is transient: no response at all, or a 5xx status. 4xx responses
// are never retried. Retries are sequential, resubmit the identical body,
// and exhaustion surfaces the last failure unchanged, so callers always see
// the true error shape.
//
// # Authentication failures
//
// A 401 on any call emits exactly one session-expired signal for that call
// via the configured hub, then propagates the error. The client never
// decides what a 401 means for session state; that belongs to the session
// manager listening on the hub, which keeps this package free of a
// dependency cycle.
//
// # Usage
//
//	client, err := httpclient.New(cfg.BaseURL,
//		httpclient.WithSignalHub(hub),
//		httpclient.WithMaxRetries(cfg.MaxRetries),
//		httpclient.WithLogger(log),
//	)
//	if err != nil {
//		return err
//	}
//
//	var contracts []api.Contract
//	if err := client.GetJSON(ctx, "/api/contracts/available", &contracts); err != nil {
//		var reqErr *httpclient.Error
//		if errors.As(err, &reqErr) && reqErr.Unauthorized() {
//			// prompt for sign-in
//		}
//	}
package httpclient
