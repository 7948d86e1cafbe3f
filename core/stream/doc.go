// Package stream consumes the portal's server-push channels
// (/api/notifications/stream and /api/contracts/stream) over Server-Sent
// Events.
//
// A stream is opened only while a session is authenticated and must be
// explicitly closed when authentication ends or the owning scope is
// discarded; an open subscription is the one resource in the client that
// needs scoped release. Correctness of the session and HTTP core never
// depends on a stream being connected.
//
//	sub, err := streams.Subscribe(ctx, stream.NotificationsPath)
//	if err != nil {
//		return err
//	}
//	defer sub.Close()
//
//	for event := range sub.Events() {
//		var notification api.Notification
//		if err := json.Unmarshal(event.Data, &notification); err != nil {
//			continue
//		}
//		// ...
//	}
package stream
