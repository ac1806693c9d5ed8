// Package logger builds configured log/slog loggers for the module.
// Services accept a *slog.Logger through their WithLogger options and default
// to a no-op logger, so logging is always opt-in at the composition root.
package logger
