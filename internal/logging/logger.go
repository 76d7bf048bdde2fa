// Package logging holds the structured logger the client and server
// share. Both binaries log through this interface so packages under
// internal/ never depend on a concrete logging backend.
package logging

import "context"

// Logger writes leveled, structured log lines. Trailing args are
// alternating keys and values:
//
//	log.Info(ctx, "cache opened", "dsn", dsn, "tables", n)
type Logger interface {
	// Info records normal operation.
	Info(ctx context.Context, msg string, args ...any)

	// Warn records something off that the program recovered from.
	Warn(ctx context.Context, msg string, args ...any)

	// Error records a failure.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that stamps the given key-value pairs on
	// every line.
	With(args ...any) Logger
}
