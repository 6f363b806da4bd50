// Package logging provides structured logging for the soundscape controller.
//
// It wraps log/slog with JSON or text output, level filtering and the
// default fields service and version on every entry.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Scheduler diagnostics are logged at debug level, so set level to debug
// together with sequencer.diagnostics to see them.
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("sequence started", "planned", 5)
//	player.SetLogger(logger.With("component", "dfplayer"))
package logging
