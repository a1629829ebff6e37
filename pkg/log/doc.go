// Package log provides structured logging for Canvass services.
//
// Loggers carry typed fields and a component tag, and write through a
// Formatter (text or JSON) to one or more Outputs. The package is
// deliberately small: no hooks, no sampling, no global logger; construct a
// Logger once and pass it down.
//
// Example:
//
//	logger := log.NewLogger(log.WithLevel(log.DebugLevel), log.WithFormatter(&log.TextFormatter{}))
//	busLogger := logger.With(log.Component("notify"))
//	busLogger.Warn("delivery failed", log.Str("client_id", id), log.Err(err))
package log
