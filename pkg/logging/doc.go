// Package logging configures log/slog for releasekit commands.
//
// Logs are structured JSON written to stderr so that stdout stays reserved
// for machine-readable results such as NEW_VERSION=1.2.4. Every record
// carries the module and version attributes; debug level adds source
// locations.
//
// The level is taken from the explicit argument when set, otherwise from
// the LOG_LEVEL environment variable, otherwise it defaults to warn.
//
//	logging.SetDefaultStructuredLoggerWithLevel("releasekit", version, "debug")
//	slog.Debug("manifest read", "path", path)
package logging
