// Package redis provides Redis connectivity for portal clients that share a
// session across processes, for example a pool of report workers acting as
// one portal account.
//
// Connect validates the connection URL, retries transient failures with a
// bounded interval, and verifies connectivity with a ping before returning
// the client. Store adapts the connection to the core/kv interface used by
// the session record layer:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	records := session.NewRecordStore(redis.NewStore(client))
package redis
