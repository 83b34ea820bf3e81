// Package logging provides structured logging for Featsync.
//
// It wraps the standard library's log/slog with configuration-driven
// handler selection (JSON or text), level filtering, and default
// service/version attributes on every record.
//
// Packages that need to log should declare their own small Logger
// interface (Debug/Info/Warn/Error) and accept any implementation;
// *logging.Logger satisfies those interfaces directly.
package logging
