// Package log provides the logging abstraction used across pollship.
//
// Encoders, sessions and the HTTP server all log through the Logger
// interface so that embedding applications can route pollship output into
// their own logging pipeline. A zerolog adapter and a no-op logger are
// provided.
//
// # Usage
//
//	logger, err := log.NewZerologAdapter(os.Stderr, "debug")
//	if err != nil {
//	    return err
//	}
//	enc := payload.NewEncoder(logger)
//
// Tests typically use the no-op logger:
//
//	enc := payload.NewEncoder(log.NewNoopLogger())
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package log
