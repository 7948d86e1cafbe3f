// Package logger provides structured logging attribute helpers built on Go's
// standard slog package. The helpers cover the attributes used throughout the
// portal client: HTTP request metadata, retry counters, and session identity.
//
// All helpers follow the empty Attr pattern: passing a nil error, empty string,
// or zero value yields an empty attribute that slog silently drops, so call
// sites never need explicit nil checks:
//
//	log.Error("request failed",
//		logger.Method(req.Method),
//		logger.URL(req.URL.String()),
//		logger.StatusCode(status),
//		logger.Error(err),
//	)
package logger
