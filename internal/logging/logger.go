// Package logging is the structured logger shared by the notes server and
// the CLI, with a log/slog implementation and a no-op for tests.
package logging

import "context"

// Logger takes a message plus alternating keys and values:
//
//	logger.Warn(ctx, "note not found", "note_id", id, "user_id", uid)
//
// The context is passed through to the handler, so request-scoped values
// can be picked up there.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child that prefixes every record with args.
	With(args ...any) Logger
}
