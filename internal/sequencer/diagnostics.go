package sequencer

// Logger is the subset of logging.Logger used for diagnostics.
type Logger interface {
	Debug(msg string, args ...any)
}

// LogDiagnostics forwards diagnostic messages to a structured logger at
// debug level.
type LogDiagnostics struct {
	Logger Logger
}

// Log implements Diagnostics.
func (d LogDiagnostics) Log(msg string) {
	if d.Logger == nil {
		return
	}
	d.Logger.Debug(msg, "component", "sequencer")
}

// DiagnosticsFunc adapts a function to the Diagnostics interface.
type DiagnosticsFunc func(msg string)

// Log implements Diagnostics.
func (f DiagnosticsFunc) Log(msg string) { f(msg) }
