package log

import "context"

// Fields is a set of structured log fields.
type Fields = map[string]interface{}

// Logger is the logging interface used across the indexer. Implementations
// must never be handed private keys, assertions, or access tokens.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Fields)
	Info(ctx context.Context, msg string, fields ...Fields)
	Warn(ctx context.Context, msg string, fields ...Fields)
	Error(ctx context.Context, msg string, err error, fields ...Fields)
	Fatal(ctx context.Context, msg string, err error, fields ...Fields) // exits the process
	With(fields Fields) Logger
}
