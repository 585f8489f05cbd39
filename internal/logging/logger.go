// Package logging defines the structured, context-aware logger used by the
// storage backends, the image CDN client and the upload pipeline.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are key–value pairs:
//
//	log.Error(ctx, "remote write failed", "path", path, "error", err)
type Logger interface {
	// Debug logs diagnostic detail (request ids, resolved keys).
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a failure that was tolerated, e.g. a best-effort mirror.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs a failure that was reported to the caller as false or as an error.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
